package pool

import (
	"sync"
	"testing"
)

func TestPathBuilder_Positions(t *testing.T) {
	pb := AcquirePathBuilder()
	defer pb.Release()

	pb.WriteString("PID")
	pb.AppendPosition(3)
	pb.AppendPosition(1)

	if got := pb.String(); got != "PID.3.1" {
		t.Errorf("String() = %q; want %q", got, "PID.3.1")
	}
}

func TestPathBuilder_AppendWithDot(t *testing.T) {
	pb := AcquirePathBuilder()
	defer pb.Release()

	pb.AppendWithDot("ORU_R01")
	pb.AppendWithDot("PATIENT_RESULT")

	if got := pb.String(); got != "ORU_R01.PATIENT_RESULT" {
		t.Errorf("String() = %q; want %q", got, "ORU_R01.PATIENT_RESULT")
	}
}

func TestPathBuilder_AppendRepetition(t *testing.T) {
	tests := []struct {
		rep  int
		want string
	}{
		{0, "PID.3"},
		{1, "PID.3"},
		{2, "PID.3(2)"},
		{12, "PID.3(12)"},
	}

	for _, tt := range tests {
		got := BuildPath(func(b *PathBuilder) {
			b.WriteString("PID")
			b.AppendPosition(3)
			b.AppendRepetition(tt.rep)
		})
		if got != tt.want {
			t.Errorf("rep %d: got %q; want %q", tt.rep, got, tt.want)
		}
	}
}

func TestPathBuilder_Reset(t *testing.T) {
	pb := AcquirePathBuilder()
	defer pb.Release()

	pb.WriteString("MSH")
	pb.Reset()
	if pb.Len() != 0 {
		t.Errorf("Len() after Reset = %d; want 0", pb.Len())
	}
}

func TestLocation(t *testing.T) {
	tests := []struct {
		segment   string
		positions []int
		want      string
	}{
		{"MSH", nil, "MSH"},
		{"PID", []int{3}, "PID.3"},
		{"OBX", []int{5, 2, 1}, "OBX.5.2.1"},
	}

	for _, tt := range tests {
		if got := Location(tt.segment, tt.positions...); got != tt.want {
			t.Errorf("Location(%q, %v) = %q; want %q", tt.segment, tt.positions, got, tt.want)
		}
	}
}

func TestPathBuilder_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if got := Location("PID", n+1); got == "" {
				t.Error("empty location")
			}
		}(i)
	}
	wg.Wait()
}

func BenchmarkLocation(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = Location("OBX", 5, 2, 1)
	}
}
