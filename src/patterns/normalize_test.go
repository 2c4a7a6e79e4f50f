package patterns

import (
	"testing"
)

func TestNormalize_Presentation(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "leading timestamp stripped",
			input:    "2024-05-21T10:00:05.123Z java.lang.IllegalStateException: closed",
			expected: "java.lang.IllegalStateException: closed",
		},
		{
			name:     "long path compressed preserving line number",
			input:    "at com.app.Auth.login(/var/lib/app/build/classes/Auth.java:45)",
			expected: "at com.app.Auth.login(.../Auth.java:45)",
		},
		{
			name:     "line numbers preserved",
			input:    "\tat com.app.Main.run(Main.java:12)",
			expected: "at com.app.Main.run(Main.java:12)",
		},
		{
			name:     "UUID masked",
			input:    "java.lang.RuntimeException: request 550e8400-e29b-41d4-a716-446655440000 failed",
			expected: "java.lang.RuntimeException: request <UUID> failed",
		},
		{
			name:     "hex address masked",
			input:    "at com.app.B$$Lambda$14/0x0000000800c03000.run(Unknown Source)",
			expected: "at com.app.B$$Lambda$14/<HEX>.run(Unknown Source)",
		},
		{
			name:     "whitespace normalized",
			input:    "Caused by:    java.io.IOException",
			expected: "Caused by: java.io.IOException",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Normalize(tt.input, MaskPresentation)
			if result != tt.expected {
				t.Errorf("Normalize(MaskPresentation)\n  input:    %q\n  got:      %q\n  expected: %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNormalize_Recurrence(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "source line dropped",
			input:    "at com.app.Main.run(Main.java:42)",
			expected: "at com.app.Main.run(Main.java)",
		},
		{
			name:     "lambda class and address masked",
			input:    "at com.app.B$$Lambda$14/0x0000000800c03000.run(Unknown Source)",
			expected: "at com.app.B$$Lambda/[HEX].run(Unknown Source)",
		},
		{
			name:     "proxy class number masked",
			input:    "at com.sun.proxy.$Proxy12.invoke(Unknown Source)",
			expected: "at com.sun.proxy.$Proxy.invoke(Unknown Source)",
		},
		{
			name:     "inner class names kept",
			input:    "at com.app.Store$Cache.get(Store.java:7)",
			expected: "at com.app.Store$Cache.get(Store.java)",
		},
		{
			name:     "identity hash masked",
			input:    "java.lang.IllegalStateException: com.app.Conn@1b6d3586 closed",
			expected: "java.lang.IllegalStateException: com.app.Conn@[HASH] closed",
		},
		{
			name:     "numbers masked",
			input:    "... 12 more",
			expected: "... [NUM] more",
		},
		{
			name:     "timestamp replaced",
			input:    "2024-05-21 10:00:05,123 failed",
			expected: "[TIMESTAMP] failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Normalize(tt.input, MaskRecurrence)
			if result != tt.expected {
				t.Errorf("Normalize(MaskRecurrence)\n  input:    %q\n  got:      %q\n  expected: %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNormalizeLines(t *testing.T) {
	lines := []string{"  at a.B.c(B.java:1)", "\tat a.B.d(B.java:2)"}
	got := NormalizeLines(lines, MaskRecurrence)
	if len(got) != 2 || got[0] != "at a.B.c(B.java)" || got[1] != "at a.B.d(B.java)" {
		t.Errorf("NormalizeLines() = %q", got)
	}
	if len(NormalizeLines(nil, MaskPresentation)) != 0 {
		t.Error("NormalizeLines(nil) should be empty")
	}
}

func TestHeadline(t *testing.T) {
	if got := Headline([]string{"", "  java.lang.Error: boom ", "at a.B.c(B.java:1)"}); got != "java.lang.Error: boom" {
		t.Errorf("Headline() = %q", got)
	}
	if got := Headline(nil); got != "" {
		t.Errorf("Headline(nil) = %q", got)
	}
}

func TestFingerprint(t *testing.T) {
	first := []string{
		"java.lang.IllegalStateException: user 41 not found",
		"\tat com.app.Users.find(Users.java:88)",
		"\tat com.app.Main.main(Main.java:12)",
		"Caused by: java.sql.SQLException: timeout after 30s",
		"\tat org.db.Conn.query(Conn.java:301)",
		"\t... 2 more",
	}
	redeployed := []string{
		"java.lang.IllegalStateException: user 97 not found",
		"\tat com.app.Users.find(Users.java:91)",
		"\tat com.app.Main.main(Main.java:12)",
		"Caused by: java.sql.SQLException: timeout after 5s",
		"\tat org.db.Conn.query(Conn.java:310)",
		"\t... 7 more",
	}
	different := []string{
		"java.lang.IllegalStateException: user 41 not found",
		"\tat com.app.Orders.find(Orders.java:88)",
	}

	a := Fingerprint(first)
	if len(a) != FingerprintLength {
		t.Fatalf("len(Fingerprint) = %d, want %d", len(a), FingerprintLength)
	}
	if b := Fingerprint(redeployed); a != b {
		t.Errorf("same shape produced different fingerprints: %s vs %s", a, b)
	}
	if c := Fingerprint(different); a == c {
		t.Errorf("different frames produced the same fingerprint %s", a)
	}
	if Fingerprint(first) != a {
		t.Error("Fingerprint is not deterministic")
	}
}
