// Package repository provides generic id-keyed tables over the slices of an
// in-memory snapshot. Rows keep insertion order.
//
// Rows whose type implements Cloner are copied on every read and write, so
// callers never share slices or pointers with the snapshot.
package repository

import "slices"

// Cloner is implemented by rows that carry slice or pointer fields.
type Cloner[T any] interface {
	Clone() T
}

// ClonePtr returns a pointer to a copy of *p, or nil.
func ClonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func detach[T any](row T) T {
	if c, ok := any(row).(Cloner[T]); ok {
		return c.Clone()
	}
	return row
}

// Repository is the row-level contract every snapshot collection offers.
type Repository[T any] interface {
	Find(filter func(T) bool) []T
	FindOne(id string) (T, bool)
	Create(row T)
	BatchCreate(rows []T)
	Save(row T) bool
	Update(id string, fn func(*T)) bool
	Delete(id string) bool
	Count(filter func(T) bool) int
}

type table[T any] struct {
	rows *[]T
	key  func(T) string
}

// Over exposes rows as a Repository keyed by key. Mutations write through
// to *rows.
func Over[T any](rows *[]T, key func(T) string) Repository[T] {
	return &table[T]{rows: rows, key: key}
}

func (t *table[T]) index(id string) int {
	return slices.IndexFunc(*t.rows, func(row T) bool { return t.key(row) == id })
}

// Find returns matching rows in insertion order; nil filter matches all.
func (t *table[T]) Find(filter func(T) bool) []T {
	out := make([]T, 0, len(*t.rows))
	for _, row := range *t.rows {
		if filter == nil || filter(row) {
			out = append(out, detach(row))
		}
	}
	return out
}

func (t *table[T]) FindOne(id string) (T, bool) {
	if i := t.index(id); i >= 0 {
		return detach((*t.rows)[i]), true
	}
	var zero T
	return zero, false
}

func (t *table[T]) Create(row T) {
	*t.rows = append(*t.rows, detach(row))
}

func (t *table[T]) BatchCreate(rows []T) {
	for _, row := range rows {
		*t.rows = append(*t.rows, detach(row))
	}
}

// Save replaces the row with the same key. It reports false when no row matched.
func (t *table[T]) Save(row T) bool {
	i := t.index(t.key(row))
	if i < 0 {
		return false
	}
	(*t.rows)[i] = detach(row)
	return true
}

func (t *table[T]) Update(id string, fn func(*T)) bool {
	i := t.index(id)
	if i < 0 {
		return false
	}
	fn(&(*t.rows)[i])
	return true
}

func (t *table[T]) Delete(id string) bool {
	i := t.index(id)
	if i < 0 {
		return false
	}
	*t.rows = slices.Delete(*t.rows, i, i+1)
	return true
}

func (t *table[T]) Count(filter func(T) bool) int {
	if filter == nil {
		return len(*t.rows)
	}
	n := 0
	for _, row := range *t.rows {
		if filter(row) {
			n++
		}
	}
	return n
}
