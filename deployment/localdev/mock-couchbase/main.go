// Command mock-couchbase serves canned Couchbase REST API documents for
// local cbcheck runs. Admin and query endpoints share one listener; point
// both configured ports at it with couchbase_ssl disabled.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"strings"
)

func main() {
	addr := flag.String("addr", ":18091", "listen address")
	flag.Parse()

	mux := http.NewServeMux()

	mux.HandleFunc("/pools/default/tasks", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, []map[string]any{
			{
				"type":   "xdcr",
				"id":     "3aab57f2/beer-sample/beer-backup",
				"status": "running",
				"source": "beer-sample",
			},
		})
	})

	mux.HandleFunc("/pools/default/buckets", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, []map[string]any{
			{"name": "beer-sample"},
			{"name": "travel-sample"},
		})
	})

	mux.HandleFunc("/pools/default/buckets/", func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/stats/replications") {
			writeJSON(w, map[string]any{
				"nodeStats": map[string]any{
					"127.0.0.1:8091": []float64{0, 1, 0, 2},
				},
			})
			return
		}
		writeJSON(w, map[string]any{
			"op": map[string]any{
				"samples": map[string]any{
					"mem_used":            []float64{512000, 514000, 516000},
					"ep_mem_high_wat":     []float64{1024000, 1024000, 1024000},
					"ep_meta_data_memory": []float64{64000, 64200, 64100},
					"ep_queue_size":       []float64{2, 4},
					"ep_flusher_todo":     []float64{1, 1},
					"curr_connections":    []float64{45, 47, 44},
					"cmd_get":             []float64{120, 130, 110},
					"cmd_set":             []float64{40, 42, 41},
					"incr_misses":         []float64{0, 0, 0},
					"incr_hits":           []float64{3, 2, 4},
					"decr_misses":         []float64{0, 0, 0},
					"decr_hits":           []float64{1, 1, 1},
					"delete_misses":       []float64{0, 1, 0},
					"delete_hits":         []float64{5, 6, 4},
				},
			},
		})
	})

	mux.HandleFunc("/pools/default", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"clusterName": "localdev",
			"nodes": []map[string]any{
				{
					"hostname":          "127.0.0.1:8091",
					"services":          []string{"kv", "n1ql"},
					"thisNode":          true,
					"status":            "healthy",
					"clusterMembership": "active",
				},
			},
		})
	})

	mux.HandleFunc("/admin/stats", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"requests.count":    1042,
			"request_timer.75%": 5.2e6,
			"request_timer.95%": 2.1e7,
			"request_timer.99%": 9.4e7,
		})
	})

	log.Printf("mock-couchbase listening on %s", *addr)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		log.Fatal(err)
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response: %v", err)
	}
}
