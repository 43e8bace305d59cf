package routine

import "testing"

type item struct {
	key string
}

func (x *item) less(y *item) bool {
	return x.key < y.key
}

func TestPriorityQueue(t *testing.T) {
	t.Run("Overall", func(t *testing.T) {
		var pq priorityqueue[*item]

		for _, r := range "abcdefgh" {
			pq.Push(&item{string(r)})
		}

		for _, r := range "abcd" {
			if u := pq.Pop(); u.key != string(r) {
				t.FailNow()
			}
		}

		for _, r := range "ijk" {
			pq.Push(&item{string(r)})
		}

		pq.Push(&item{"d"})

		if u := pq.Pop(); u.key != "d" {
			t.FailNow()
		}

		pq.Push(&item{"g"})
		pq.Push(&item{"f"})

		for _, r := range "effgghijk" {
			if u := pq.Pop(); u.key != string(r) {
				t.FailNow()
			}
		}

		if !pq.Empty() {
			t.FailNow()
		}
	})
	t.Run("FIFO", func(t *testing.T) {
		var pq priorityqueue[*item]

		u := &item{"/"}
		v := &item{"/"}
		w := &item{"/"}

		pq.Push(u)
		pq.Push(v)
		pq.Push(w)

		if pq.Pop() != u || pq.Pop() != v || pq.Pop() != w {
			t.FailNow()
		}
	})
	t.Run("RootEntries", func(t *testing.T) {
		var pq priorityqueue[*rootEntry]

		entries := []*rootEntry{
			{weight: 0, seq: 0},
			{weight: 2, seq: 1},
			{weight: 0, seq: 2},
			{weight: 2, seq: 3},
			{weight: -1, seq: 4},
		}
		for _, e := range entries {
			pq.Push(e)
		}

		if pq.Len() != len(entries) {
			t.Fatalf("Len() = %d", pq.Len())
		}

		for _, want := range []uint64{1, 3, 0, 2, 4} {
			if e := pq.Pop(); e.seq != want {
				t.Fatalf("got seq %d, want %d", e.seq, want)
			}
		}

		pq.Push(entries[0])
		pq.Clear()

		if !pq.Empty() || pq.Len() != 0 {
			t.Fatal("Clear did not empty the queue")
		}
	})
}
