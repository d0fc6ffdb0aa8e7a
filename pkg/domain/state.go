package domain

// StateAccumulator is the ordered, append-only list of records of one run.
//
// Index 0 always holds the original request input. Records are never
// reordered or mutated after they are appended, and callers only ever see
// copies. An accumulator belongs to a single run and is not safe for
// concurrent use.
type StateAccumulator struct {
	records []ExecutionRecord
}

// NewAccumulator seeds an accumulator with the request input as record 0.
func NewAccumulator(input string) *StateAccumulator {
	return &StateAccumulator{
		records: []ExecutionRecord{{NodeID: StartNodeID, Input: input}},
	}
}

// Append adds a record at the end.
func (s *StateAccumulator) Append(rec ExecutionRecord) {
	s.records = append(s.records, rec.Clone())
}

// Len returns the number of records, including the seed.
func (s *StateAccumulator) Len() int { return len(s.records) }

// First returns the seed record.
func (s *StateAccumulator) First() ExecutionRecord { return s.records[0].Clone() }

// Latest returns the most recently appended record.
func (s *StateAccumulator) Latest() ExecutionRecord { return s.records[len(s.records)-1].Clone() }

// At returns the record at index i. It panics if i is out of range, like a slice.
func (s *StateAccumulator) At(i int) ExecutionRecord { return s.records[i].Clone() }

// Records returns a copy of every record in order.
func (s *StateAccumulator) Records() []ExecutionRecord {
	out := make([]ExecutionRecord, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out
}
