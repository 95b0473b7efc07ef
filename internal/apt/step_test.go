package apt

import (
	"errors"
	"testing"
)

func TestParseStep(t *testing.T) {
	tests := []struct {
		name    string
		raw     map[string]string
		want    Step
		wantErr bool
	}{
		{
			name: "processing",
			raw:  map[string]string{"event": "processing", "package": "man-db"},
			want: Step{Kind: StepProcessing, Package: "man-db"},
		},
		{
			name: "setting up",
			raw:  map[string]string{"event": "setting_up", "package": "libc6"},
			want: Step{Kind: StepSettingUp, Package: "libc6"},
		},
		{
			name: "unpacking",
			raw:  map[string]string{"event": "unpacking", "package": "libc6", "version": "2.35-0ubuntu3", "over": "2.31-0ubuntu9"},
			want: Step{Kind: StepUnpacking, Package: "libc6", Version: "2.35-0ubuntu3", Over: "2.31-0ubuntu9"},
		},
		{
			name: "progress",
			raw:  map[string]string{"event": "progress", "percent": "42"},
			want: Step{Kind: StepProgress, Percent: 42},
		},
		{
			name: "waiting on lock",
			raw:  map[string]string{"event": "waiting_on_lock"},
			want: Step{Kind: StepWaitingOnLock},
		},
		{name: "unknown event", raw: map[string]string{"event": "dancing"}, wantErr: true},
		{name: "missing event", raw: map[string]string{}, wantErr: true},
		{name: "processing without package", raw: map[string]string{"event": "processing"}, wantErr: true},
		{name: "unpacking without over", raw: map[string]string{"event": "unpacking", "package": "a", "version": "1"}, wantErr: true},
		{name: "percent not a number", raw: map[string]string{"event": "progress", "percent": "lots"}, wantErr: true},
		{name: "percent over 100", raw: map[string]string{"event": "progress", "percent": "101"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStep(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedStep) {
					t.Fatalf("ParseStep() error = %v, want ErrMalformedStep", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseStep() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseStep() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
