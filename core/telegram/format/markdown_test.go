package format

import "testing"

func TestMD(t *testing.T) {
	if got, want := MD("Dr_Martens *1460* [black] `x`"), "Dr\\_Martens \\*1460\\* \\[black] \\`x\\`"; got != want {
		t.Fatalf("MD = %q, want %q", got, want)
	}
	if got := MD("1.5 (new)!"); got != "1.5 (new)!" {
		t.Fatalf("MD touched plain text: %q", got)
	}
	if got := Bold("Soft_7"); got != `*Soft\_7*` {
		t.Fatalf("Bold = %q", got)
	}
}
