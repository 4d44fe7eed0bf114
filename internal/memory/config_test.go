package memory

import (
	"math"
	"testing"
)

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestConfigure(t *testing.T) {
	const gib = int64(1 << 30)

	tests := []struct {
		name           string
		env            map[string]string
		runtimeLimit   int64
		wantSource     string
		wantConfigured bool
		wantSet        int64
		wantRatio      float64
	}{
		{
			name:       "nothing set",
			env:        map[string]string{},
			wantSource: "none",
		},
		{
			name:           "GOMEMLIMIT wins",
			env:            map[string]string{"GOMEMLIMIT": "512MiB", "MEMORY_LIMIT": "1073741824"},
			runtimeLimit:   512 << 20,
			wantSource:     "GOMEMLIMIT",
			wantConfigured: true,
		},
		{
			name:       "GOMEMLIMIT set but unlimited",
			env:        map[string]string{"GOMEMLIMIT": "off"},
			wantSource: "GOMEMLIMIT",
		},
		{
			name:           "MEMORY_LIMIT default ratio",
			env:            map[string]string{"MEMORY_LIMIT": "1073741824"},
			wantSource:     "MEMORY_LIMIT",
			wantConfigured: true,
			wantSet:        int64(float64(gib) * DefaultMemoryRatio),
			wantRatio:      DefaultMemoryRatio,
		},
		{
			name:           "MEMORY_LIMIT custom ratio",
			env:            map[string]string{"MEMORY_LIMIT": "1073741824", "MEMORY_RATIO": "0.5"},
			wantSource:     "MEMORY_LIMIT",
			wantConfigured: true,
			wantSet:        gib / 2,
			wantRatio:      0.5,
		},
		{
			name:           "ratio out of range falls back",
			env:            map[string]string{"MEMORY_LIMIT": "1073741824", "MEMORY_RATIO": "1.5"},
			wantSource:     "MEMORY_LIMIT",
			wantConfigured: true,
			wantSet:        int64(float64(gib) * DefaultMemoryRatio),
			wantRatio:      DefaultMemoryRatio,
		},
		{
			name:           "unparsable ratio falls back",
			env:            map[string]string{"MEMORY_LIMIT": "1073741824", "MEMORY_RATIO": "most"},
			wantSource:     "MEMORY_LIMIT",
			wantConfigured: true,
			wantSet:        int64(float64(gib) * DefaultMemoryRatio),
			wantRatio:      DefaultMemoryRatio,
		},
		{
			name:       "invalid MEMORY_LIMIT",
			env:        map[string]string{"MEMORY_LIMIT": "1Gi"},
			wantSource: "none",
		},
		{
			name:       "negative MEMORY_LIMIT",
			env:        map[string]string{"MEMORY_LIMIT": "-5"},
			wantSource: "none",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var set int64
			setLimit := func(v int64) int64 {
				if v < 0 {
					if tt.runtimeLimit == 0 {
						return math.MaxInt64
					}
					return tt.runtimeLimit
				}
				set = v
				return 0
			}

			got := configure(envFrom(tt.env), setLimit)

			if got.Source != tt.wantSource {
				t.Errorf("Source = %q, want %q", got.Source, tt.wantSource)
			}
			if got.Configured != tt.wantConfigured {
				t.Errorf("Configured = %v, want %v", got.Configured, tt.wantConfigured)
			}
			if set != tt.wantSet {
				t.Errorf("limit set to %d, want %d", set, tt.wantSet)
			}
			if got.Ratio != tt.wantRatio {
				t.Errorf("Ratio = %v, want %v", got.Ratio, tt.wantRatio)
			}
			if tt.wantSet != 0 && got.GoMemLimit != tt.wantSet {
				t.Errorf("GoMemLimit = %d, want %d", got.GoMemLimit, tt.wantSet)
			}
			if tt.runtimeLimit != 0 && got.GoMemLimit != tt.runtimeLimit {
				t.Errorf("GoMemLimit = %d, want %d", got.GoMemLimit, tt.runtimeLimit)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1 << 20, "1.0 MiB"},
		{3 << 30, "3.0 GiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
