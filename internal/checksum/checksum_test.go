package checksum

import (
	"net/url"
	"testing"
)

func TestSum_KnownDigest(t *testing.T) {
	got := Sum([]byte("abc"))
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Errorf("Sum(abc) = %s, want %s", got, want)
	}
}

func TestFields_OrderIndependent(t *testing.T) {
	a := url.Values{}
	a.Set("marca", "Acme")
	a.Set("ncl", "25")

	b := url.Values{}
	b.Set("ncl", "25")
	b.Set("marca", "Acme")

	if Fields(a) != Fields(b) {
		t.Error("digest should not depend on insertion order")
	}

	b.Set("ncl", "26")
	if Fields(a) == Fields(b) {
		t.Error("different values should give different digests")
	}
}

func TestFields_ValuesAreEscaped(t *testing.T) {
	a := url.Values{"marca": {"a&ncl=1"}}
	b := url.Values{"marca": {"a"}, "ncl": {"1"}}
	if Fields(a) == Fields(b) {
		t.Error("embedded separators must not collide")
	}
}
