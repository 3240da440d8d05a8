package store

import (
	"fmt"
	"os"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/nvandessel/infodemic/internal/vecmath"
)

// SnapshotWriter appends belief-matrix snapshots to an Arrow IPC file.
// The schema is fixed at creation: day, agent_id, and one float64 column
// per claim slot (named after the claim at run start; slot positions
// survive mutation renames).
type SnapshotWriter struct {
	f      *os.File
	w      *ipc.FileWriter
	schema *arrow.Schema
	mem    memory.Allocator
	claims int
}

// NewSnapshotWriter creates the Arrow file and its schema.
func NewSnapshotWriter(path string, claimNames []string) (*SnapshotWriter, error) {
	fields := make([]arrow.Field, 0, len(claimNames)+2)
	fields = append(fields,
		arrow.Field{Name: "day", Type: arrow.PrimitiveTypes.Int32},
		arrow.Field{Name: "agent_id", Type: arrow.PrimitiveTypes.Int32},
	)
	for _, name := range claimNames {
		fields = append(fields, arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Float64})
	}
	schema := arrow.NewSchema(fields, nil)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("store: create snapshot file: %w", err)
	}
	mem := memory.NewGoAllocator()
	w, err := ipc.NewFileWriter(f, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("store: create snapshot writer: %w", err)
	}
	return &SnapshotWriter{f: f, w: w, schema: schema, mem: mem, claims: len(claimNames)}, nil
}

// Write appends one record batch holding the full belief matrix for a
// snapshot day.
func (s *SnapshotWriter) Write(day int, belief *vecmath.Matrix) error {
	if belief.Cols != s.claims {
		return fmt.Errorf("store: snapshot has %d claims, schema has %d", belief.Cols, s.claims)
	}
	b := array.NewRecordBuilder(s.mem, s.schema)
	defer b.Release()

	dayB := b.Field(0).(*array.Int32Builder)
	agentB := b.Field(1).(*array.Int32Builder)
	for i := 0; i < belief.Rows; i++ {
		dayB.Append(int32(day))
		agentB.Append(int32(i))
	}
	for k := 0; k < belief.Cols; k++ {
		col := b.Field(2 + k).(*array.Float64Builder)
		for i := 0; i < belief.Rows; i++ {
			col.Append(belief.At(i, k))
		}
	}

	rec := b.NewRecord()
	defer rec.Release()
	if err := s.w.Write(rec); err != nil {
		return fmt.Errorf("store: write snapshot batch day %d: %w", day, err)
	}
	return nil
}

// SnapshotReader reads back a snapshot file.
type SnapshotReader struct {
	f *os.File
	r *ipc.FileReader
}

// OpenSnapshots opens an Arrow snapshot file for reading.
func OpenSnapshots(path string) (*SnapshotReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("store: open snapshot file: %w", err)
	}
	r, err := ipc.NewFileReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("store: read snapshot file: %w", err)
	}
	return &SnapshotReader{f: f, r: r}, nil
}

// NumRecords returns the number of snapshot batches in the file.
func (s *SnapshotReader) NumRecords() int { return s.r.NumRecords() }

// Record returns the i-th snapshot batch.
func (s *SnapshotReader) Record(i int) (arrow.Record, error) {
	rec, err := s.r.Record(i)
	if err != nil {
		return nil, fmt.Errorf("store: read snapshot batch %d: %w", i, err)
	}
	return rec, nil
}

// Close releases the reader and the file.
func (s *SnapshotReader) Close() error {
	if err := s.r.Close(); err != nil {
		s.f.Close()
		return fmt.Errorf("store: close snapshot reader: %w", err)
	}
	return s.f.Close()
}

// Close finalizes the IPC footer and the file.
func (s *SnapshotWriter) Close() error {
	if err := s.w.Close(); err != nil {
		s.f.Close()
		return fmt.Errorf("store: close snapshot writer: %w", err)
	}
	if err := s.f.Close(); err != nil {
		return fmt.Errorf("store: close snapshot file: %w", err)
	}
	return nil
}
