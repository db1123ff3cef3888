package config

import "testing"

func TestSheetSyncEnabledDefaultsOn(t *testing.T) {
	t.Setenv("SHEET_SYNC_ENABLED", "")
	if !SheetSyncEnabled() {
		t.Fatal("sheet sync should default to enabled")
	}
	t.Setenv("SHEET_SYNC_ENABLED", "false")
	if SheetSyncEnabled() {
		t.Fatal("SHEET_SYNC_ENABLED=false should disable sync")
	}
}

func TestSheetSyncCreateTopicDefaultsOff(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"false", false},
		{"no", false},
		{"1", true},
		{"true", true},
		{"YES", true},
	}
	for _, tc := range cases {
		t.Setenv("SHEETSYNC_CREATE_TOPIC", tc.value)
		if got := SheetSyncCreateTopic(); got != tc.want {
			t.Errorf("SHEETSYNC_CREATE_TOPIC=%q: got %v, want %v", tc.value, got, tc.want)
		}
	}
}
