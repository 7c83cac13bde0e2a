// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Command seeder writes synthetic candidate records in the messy shapes the
// warehouse export produces: numbers as strings, zero years, partial dates,
// loose booleans, scalars where lists are expected and the occasional
// undecodable line.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
)

var (
	count     = flag.Int("n", 100, "number of records to write")
	output    = flag.String("out", "", "output file (default stdout)")
	seed      = flag.Uint64("seed", 1, "random seed")
	malformed = flag.Int("malformed-every", 0, "write an undecodable line after every N records (0 disables)")
)

var (
	firstNames = []string{"Ada", "Grace", "Katherine", "Alan", "Edsger", "Barbara", "Linus", "Margaret", "Dennis", "Frances", "José", "Zoë"}
	lastNames  = []string{"Lovelace", "Hopper", "Johnson", "Turing", "Dijkstra", "Liskov", "Torvalds", "Hamilton", "Ritchie", "Allen", "Núñez", "Østergaard"}
	skills     = []string{"go", "python", "sql", "kubernetes", "terraform", "react", "data modeling", "machine learning", "rust", "postgres", "kafka", "typescript"}
	titles     = []string{"Software Engineer", "Data Engineer", "Platform Engineer", "Engineering Manager", "ML Engineer", "SRE", "Analyst"}
	employers  = []string{"Acme Corp", "Globex", "Initech", "Umbrella", "Hooli", "Stark Industries", "Wayne Enterprises"}
	degrees    = []string{"BSc", "MSc", "PhD", "BA", "Bootcamp", ""}
	areas      = []string{"Computer Science", "Mathematics", "Physics", "Economics", "Design"}
	schools    = []string{"MIT", "Stanford", "ETH Zürich", "University of Waterloo", "IIT Bombay", "Universidad de Buenos Aires"}
	countries  = []string{"US", "Canada", "Germany", "India", "Brazil", "Denmark"}
	cities     = []string{"Austin", "Toronto", "Berlin", "Pune", "São Paulo", "Copenhagen"}
	envs       = []string{"remote", "hybrid", "onsite", "startup", "enterprise"}
	values     = []string{"Ownership and curiosity.", "Clear communication.", "Shipping small and often.", "Mentoring others.", "Craftsmanship."}
	truthy     = []any{true, false, "true", "false", "yes", "no", 1, 0, "1", "", nil, "Y"}
	garbage    = []string{`{"name": "truncated`, `not json at all`, `[1, 2, 3]`, `{"name": "a"} trailing`, `"just a string"`}
)

func init() {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}

func pick[T any](r *rand.Rand, xs []T) T {
	return xs[r.IntN(len(xs))]
}

func sample(r *rand.Rand, xs []string, n int) []any {
	out := make([]any, 0, n)
	for _, i := range r.Perm(len(xs))[:min(n, len(xs))] {
		out = append(out, xs[i])
	}
	return out
}

// year renders a year the way the export does: sometimes a number,
// sometimes text, sometimes the zero sentinel, sometimes missing.
func year(r *rand.Rand, y int) any {
	switch r.IntN(6) {
	case 0:
		return 0
	case 1:
		return fmt.Sprint(y)
	case 2:
		return nil
	default:
		return y
	}
}

// date renders a date in one of the formats seen in the export.
func date(r *rand.Rand, y, m, d int) any {
	switch r.IntN(8) {
	case 0:
		return fmt.Sprintf("%d", y)
	case 1:
		return fmt.Sprintf("%d-%02d", y, m)
	case 2:
		return fmt.Sprintf("%02d-%02d-%02d", y%100, m, d)
	case 3:
		return fmt.Sprintf("%d-%02d-%02dT09:30:00Z", y, m, d)
	case 4:
		return ""
	case 5:
		return "unknown"
	case 6:
		return nil
	default:
		return fmt.Sprintf("%d-%02d-%02d", y, m, d)
	}
}

func candidate(r *rand.Rand) map[string]any {
	rec := map[string]any{
		"name":                 pick(r, firstNames) + " " + pick(r, lastNames),
		"candidate_values":     pick(r, values),
		"candidate_strengths":  pick(r, values),
		"willing_to_relocate":  pick(r, truthy),
		"mentra_profile_link":  fmt.Sprintf("https://profiles.example/%08x", r.Uint32()),
		"jobSearchenvironment": sample(r, envs, 1+r.IntN(2)),
	}

	// Skills arrive as a list, a single string or null.
	switch r.IntN(5) {
	case 0:
		rec["skills"] = pick(r, skills)
	case 1:
		rec["skills"] = nil
	default:
		rec["skills"] = sample(r, skills, 1+r.IntN(5))
	}

	var education []any
	for range r.IntN(3) {
		start := 1985 + r.IntN(35)
		education = append(education, map[string]any{
			"degree":                pick(r, degrees),
			"university_start_year": year(r, start),
			"university_end_year":   year(r, start+2+r.IntN(4)),
			"education_area":        pick(r, areas),
			"school_name":           pick(r, schools),
		})
	}
	if r.IntN(10) == 0 {
		education = append(education, "n/a")
	}
	rec["education"] = education

	var experiences []any
	for i := range r.IntN(4) {
		y := 2000 + r.IntN(25)
		exp := map[string]any{
			"title":          pick(r, titles),
			"employer":       pick(r, employers),
			"description":    "Worked on " + pick(r, skills) + " systems.",
			"is_current":     i == 0 && r.IntN(2) == 0,
			"start_date":     date(r, y, 1+r.IntN(12), 1+r.IntN(28)),
			"duration_years": fmt.Sprintf("%.1f", r.Float64()*8),
		}
		if exp["is_current"] != true {
			exp["left_date"] = date(r, y+1+r.IntN(3), 1+r.IntN(12), 1+r.IntN(28))
		}
		experiences = append(experiences, exp)
	}
	if r.IntN(10) == 0 {
		experiences = append(experiences, map[string]any{"unexpected": true})
	}
	rec["experiences"] = experiences

	if r.IntN(4) == 0 {
		rec["locations"] = map[string]any{"country": pick(r, countries), "city": pick(r, cities)}
	} else {
		rec["locations"] = []any{map[string]any{"country": pick(r, countries), "state": "", "city": pick(r, cities)}}
	}

	if r.IntN(8) != 0 {
		rec["candidate_activity"] = map[string]any{
			"account_age_days": r.IntN(2000),
			"count_of_logins":  fmt.Sprint(r.IntN(500)),
			"last_login":       date(r, 2020+r.IntN(6), 1+r.IntN(12), 1+r.IntN(28)),
		}
	}
	return rec
}

// write emits n records, inserting an undecodable line after every
// malformedEvery records when it is positive.
func write(w io.Writer, r *rand.Rand, n, malformedEvery int) (int, error) {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)

	bad := 0
	for i := 1; i <= n; i++ {
		if err := enc.Encode(candidate(r)); err != nil {
			return bad, err
		}
		if malformedEvery > 0 && i%malformedEvery == 0 {
			if _, err := fmt.Fprintln(bw, pick(r, garbage)); err != nil {
				return bad, err
			}
			bad++
		}
	}
	return bad, bw.Flush()
}

func main() {
	flag.Parse()
	var w io.Writer = os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			slog.Error("failed to create output", "path", *output, "err", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}

	r := rand.New(rand.NewPCG(*seed, *seed))
	bad, err := write(w, r, *count, *malformed)
	if err != nil {
		slog.Error("failed to write records", "err", err)
		os.Exit(1)
	}
	slog.Info("wrote synthetic candidates", "records", *count, "malformed_lines", bad, "seed", *seed)
}
