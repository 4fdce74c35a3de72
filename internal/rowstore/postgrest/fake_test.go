package postgrest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// fakePostgREST serves the subset of PostgREST the client uses from in-memory tables.
type fakePostgREST struct {
	mu     sync.Mutex
	apiKey string
	tables map[string][]map[string]any
	nextID int64
	clock  time.Time
}

func newFakePostgREST(apiKey string) *fakePostgREST {
	return &fakePostgREST{
		apiKey: apiKey,
		tables: map[string][]map[string]any{},
		clock:  time.Date(2025, 1, 5, 8, 0, 0, 0, time.UTC),
	}
}

func (f *fakePostgREST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("apikey") != f.apiKey || r.Header.Get("Authorization") != "Bearer "+f.apiKey {
		http.Error(w, `{"message":"invalid api key"}`, http.StatusUnauthorized)
		return
	}
	table, ok := strings.CutPrefix(r.URL.Path, "/rest/v1/")
	if !ok || table == "" {
		http.NotFound(w, r)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	q := r.URL.Query()
	switch r.Method {
	case http.MethodGet:
		rows := f.filter(table, q)
		if order := q.Get("order"); order != "" {
			col, dir, _ := strings.Cut(order, ".")
			sort.SliceStable(rows, func(i, j int) bool {
				a, b := fmt.Sprint(rows[i][col]), fmt.Sprint(rows[j][col])
				if a == b {
					return rows[i]["id"].(int64) < rows[j]["id"].(int64)
				}
				if dir == "desc" {
					return a > b
				}
				return a < b
			})
		}
		if lim, err := strconv.Atoi(q.Get("limit")); err == nil && lim < len(rows) {
			rows = rows[:lim]
		}
		writeRows(w, http.StatusOK, rows)

	case http.MethodPost:
		var in []map[string]any
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, `{"message":"bad json"}`, http.StatusBadRequest)
			return
		}
		merge := strings.Contains(r.Header.Get("Prefer"), "resolution=merge-duplicates")
		out := make([]map[string]any, 0, len(in))
		for _, row := range in {
			if id, ok := row["id"].(float64); ok && merge {
				if existing := f.byID(table, int64(id)); existing != nil {
					for k, v := range row {
						if k != "id" {
							existing[k] = v
						}
					}
					out = append(out, existing)
					continue
				}
				row["id"] = int64(id)
				f.clock = f.clock.Add(time.Second)
				row["created_at"] = f.clock.Format("2006-01-02T15:04:05.000000Z")
				f.tables[table] = append(f.tables[table], row)
				out = append(out, row)
				continue
			}
			f.nextID++
			f.clock = f.clock.Add(time.Second)
			row["id"] = f.nextID
			row["created_at"] = f.clock.Format("2006-01-02T15:04:05.000000Z")
			if table == "medications" {
				if _, ok := row["last_taken_date"]; !ok {
					row["last_taken_date"] = nil
				}
			}
			f.tables[table] = append(f.tables[table], row)
			out = append(out, row)
		}
		writeRows(w, http.StatusCreated, out)

	case http.MethodPatch:
		var patch map[string]any
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			http.Error(w, `{"message":"bad json"}`, http.StatusBadRequest)
			return
		}
		rows := f.filter(table, q)
		for _, row := range rows {
			for k, v := range patch {
				row[k] = v
			}
		}
		writeRows(w, http.StatusOK, rows)

	case http.MethodDelete:
		rows := f.filter(table, q)
		kept := f.tables[table][:0]
		for _, row := range f.tables[table] {
			if !contains(rows, row) {
				kept = append(kept, row)
			}
		}
		f.tables[table] = kept
		writeRows(w, http.StatusOK, rows)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakePostgREST) filter(table string, q map[string][]string) []map[string]any {
	out := []map[string]any{}
	for _, row := range f.tables[table] {
		match := true
		for col, vals := range q {
			for _, v := range vals {
				op, want, ok := strings.Cut(v, ".")
				if !ok {
					continue
				}
				got := fmt.Sprint(row[col])
				switch op {
				case "eq":
					match = match && got == want
				case "gte":
					match = match && got >= want
				case "lt":
					match = match && got < want
				}
			}
		}
		if match {
			out = append(out, row)
		}
	}
	return out
}

func (f *fakePostgREST) byID(table string, id int64) map[string]any {
	for _, row := range f.tables[table] {
		if row["id"] == id {
			return row
		}
	}
	return nil
}

func contains(rows []map[string]any, row map[string]any) bool {
	for _, r := range rows {
		if r["id"] == row["id"] {
			return true
		}
	}
	return false
}

func writeRows(w http.ResponseWriter, status int, rows []map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(rows)
}
