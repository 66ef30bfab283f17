// Package dataset prepares interaction logs for sequence trainers: loading,
// user-based splitting, and sliding-window sequence chunking.
package dataset

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Interactions is a flat log of (user, item, timestamp) events.
type Interactions struct {
	Users      []int
	Items      []int
	Timestamps []int64
}

func (in *Interactions) Len() int { return len(in.Users) }

// Load reads a CSV interaction log. Rows are user,item,timestamp or
// user,item,rating,timestamp (the rating column is ignored: interactions are
// implicit feedback). A header row is detected and skipped.
func Load(path string) (*Interactions, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing dataset %s: %w", path, err)
	}

	in := &Interactions{}
	for i, row := range rows {
		if len(row) != 3 && len(row) != 4 {
			return nil, fmt.Errorf("dataset %s row %d: want 3 or 4 columns, got %d", path, i+1, len(row))
		}
		user, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			if i == 0 {
				continue // header row
			}
			return nil, fmt.Errorf("dataset %s row %d: bad user id %q", path, i+1, row[0])
		}
		item, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil {
			return nil, fmt.Errorf("dataset %s row %d: bad item id %q", path, i+1, row[1])
		}
		ts, err := strconv.ParseInt(strings.TrimSpace(row[len(row)-1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("dataset %s row %d: bad timestamp %q", path, i+1, row[len(row)-1])
		}
		in.Users = append(in.Users, user)
		in.Items = append(in.Items, item)
		in.Timestamps = append(in.Timestamps, ts)
	}
	if in.Len() == 0 {
		return nil, fmt.Errorf("dataset %s: no interactions", path)
	}
	return in, nil
}

// UserSplit partitions interactions by user: a fraction testPercentage of
// users (and all their events) lands in the second return value, the rest in
// the first. The same seed always produces the same partition.
func UserSplit(in *Interactions, testPercentage float64, seed int64) (*Interactions, *Interactions) {
	users := uniqueUsers(in)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(users), func(i, j int) {
		users[i], users[j] = users[j], users[i]
	})

	numTest := int(testPercentage * float64(len(users)))
	testUsers := make(map[int]bool, numTest)
	for _, u := range users[:numTest] {
		testUsers[u] = true
	}

	rest, test := &Interactions{}, &Interactions{}
	for i := range in.Users {
		dst := rest
		if testUsers[in.Users[i]] {
			dst = test
		}
		dst.Users = append(dst.Users, in.Users[i])
		dst.Items = append(dst.Items, in.Items[i])
		dst.Timestamps = append(dst.Timestamps, in.Timestamps[i])
	}
	return rest, test
}

// Sequences holds chunked per-user item sequences, one window per row.
type Sequences struct {
	Windows [][]int
}

// ToSequences orders each user's items by timestamp and chunks them into
// windows of at most maxLen items, advancing by step between windows.
// Windows shorter than minLen are dropped.
func ToSequences(in *Interactions, maxLen, minLen, step int) (*Sequences, error) {
	if maxLen < 1 || minLen < 1 || step < 1 {
		return nil, fmt.Errorf("sequence lengths and step must be positive (max %d, min %d, step %d)", maxLen, minLen, step)
	}
	if minLen > maxLen {
		return nil, fmt.Errorf("min sequence length %d exceeds max %d", minLen, maxLen)
	}

	type event struct {
		item int
		ts   int64
	}
	byUser := make(map[int][]event)
	var order []int
	for i := range in.Users {
		u := in.Users[i]
		if _, seen := byUser[u]; !seen {
			order = append(order, u)
		}
		byUser[u] = append(byUser[u], event{item: in.Items[i], ts: in.Timestamps[i]})
	}
	// Users in sorted order so output does not depend on map iteration.
	sort.Ints(order)

	seqs := &Sequences{}
	for _, u := range order {
		events := byUser[u]
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].ts < events[j].ts
		})
		items := make([]int, len(events))
		for i, e := range events {
			items[i] = e.item
		}
		for start := 0; start < len(items); start += step {
			end := start + maxLen
			if end > len(items) {
				end = len(items)
			}
			if end-start < minLen {
				break
			}
			seqs.Windows = append(seqs.Windows, items[start:end])
		}
	}
	return seqs, nil
}

// WriteFile writes one window per line, item ids space-separated. This is
// the handoff format trainers consume.
func (s *Sequences) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating sequence file %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	for _, window := range s.Windows {
		for i, item := range window {
			if i > 0 {
				if err := w.WriteByte(' '); err != nil {
					f.Close()
					return fmt.Errorf("writing sequence file %s: %w", path, err)
				}
			}
			if _, err := w.WriteString(strconv.Itoa(item)); err != nil {
				f.Close()
				return fmt.Errorf("writing sequence file %s: %w", path, err)
			}
		}
		if err := w.WriteByte('\n'); err != nil {
			f.Close()
			return fmt.Errorf("writing sequence file %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flushing sequence file %s: %w", path, err)
	}
	return f.Close()
}

func uniqueUsers(in *Interactions) []int {
	seen := make(map[int]bool)
	var users []int
	for _, u := range in.Users {
		if !seen[u] {
			seen[u] = true
			users = append(users, u)
		}
	}
	// First-seen order varies with input order only; sort for a stable base
	// before the seeded shuffle.
	sort.Ints(users)
	return users
}
