package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
)

var (
	outputFormat string // "table", "json", "raw"
	outputField  string // for -field=key
)

// printResult outputs data in the chosen format. Most API responses are
// either a single object or a map with one key holding a list of objects;
// the table renderer handles both.
func printResult(data map[string]any) {
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(data) //nolint:errcheck
	case "raw":
		if outputField != "" {
			if v, ok := data[outputField]; ok {
				fmt.Println(v)
			}
		} else {
			for _, k := range sortedKeys(data) {
				fmt.Printf("%s=%v\n", k, data[k])
			}
		}
	default:
		printTable(data)
	}
}

func printTable(data map[string]any) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, k := range sortedKeys(data) {
		switch val := data[k].(type) {
		case map[string]any:
			fmt.Fprintf(w, "%s\t\n", strings.ToUpper(k))
			for _, kk := range sortedKeys(val) {
				fmt.Fprintf(w, "  %s\t%v\n", kk, val[kk])
			}
		case []any:
			printRows(w, k, val)
		default:
			fmt.Fprintf(w, "%s\t%v\n", k, formatValue(val))
		}
	}
	w.Flush()
}

// printRows renders a list of objects as one aligned row per object, with a
// header row built from the union of keys. Scalar lists print inline.
func printRows(w *tabwriter.Writer, key string, items []any) {
	var cols []string
	seen := map[string]bool{}
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			fmt.Fprintf(w, "%s\t%s\n", key, joinScalars(items))
			return
		}
		for k := range obj {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)

	fmt.Fprintf(w, "%s (%d)\t\n", strings.ToUpper(key), len(items))
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s\t\n", strings.Join(cols, "\t"))
	for _, item := range items {
		obj := item.(map[string]any)
		vals := make([]string, len(cols))
		for i, c := range cols {
			vals[i] = formatValue(obj[c])
		}
		fmt.Fprintf(w, "  %s\t\n", strings.Join(vals, "\t"))
	}
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%.2f", val)
	case map[string]any:
		data, _ := json.Marshal(val)
		return string(data)
	case []any:
		return joinScalars(val)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func joinScalars(vals []any) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = formatValue(v)
	}
	return strings.Join(parts, ", ")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func printError(msg string) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
}

func printSuccess(msg string) {
	fmt.Println(msg)
}
