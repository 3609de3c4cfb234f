// Package ints implements a set of non-negative integers backed by a bit
// array. The generator uses it to track which (rule, budget) enumerations
// are in progress.
package ints

const intSizeShift = 5 + (^uint(0) >> 32 & 1)
const intSize = 1 << intSizeShift

type Set struct {
	chunks []uint
}

func NewSet(items ...int) *Set {
	result := &Set{}
	for _, item := range items {
		result.Add(item)
	}
	return result
}

func (s *Set) Add(item int) *Set {
	index := item >> intSizeShift
	if index >= len(s.chunks) {
		chunks := make([]uint, index+1)
		copy(chunks, s.chunks)
		s.chunks = chunks
	}
	s.chunks[index] |= bitMask(item)
	return s
}

func (s *Set) Remove(item int) *Set {
	index := item >> intSizeShift
	if index < len(s.chunks) {
		s.chunks[index] &^= bitMask(item)
	}
	return s
}

func (s *Set) Contains(item int) bool {
	index := item >> intSizeShift
	return index < len(s.chunks) && s.chunks[index]&bitMask(item) != 0
}

func (s *Set) IsEmpty() bool {
	for _, chunk := range s.chunks {
		if chunk != 0 {
			return false
		}
	}
	return true
}

func (s *Set) ToSlice() []int {
	var result []int
	for i, chunk := range s.chunks {
		for bit := 0; chunk != 0; bit++ {
			if chunk&1 != 0 {
				result = append(result, i<<intSizeShift+bit)
			}
			chunk >>= 1
		}
	}
	return result
}

func bitMask(item int) uint {
	return 1 << (uint(item) & (intSize - 1))
}
