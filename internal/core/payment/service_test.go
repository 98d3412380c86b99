package payment

import "testing"

func TestVerifyCancelToken(t *testing.T) {
	p := &Payment{Reference: "5e6f7a8b-1c2d-3e4f-5a6b-7c8d9e0f1a2b"}

	if err := verifyCancelToken(p, "5e6f7a8b-1c2d-3e4f-5a6b-7c8d9e0f1a2b"); err != nil {
		t.Errorf("matching token rejected: %v", err)
	}
	if err := verifyCancelToken(p, "00000000-0000-0000-0000-000000000000"); err == nil {
		t.Error("mismatched token accepted")
	}
	if err := verifyCancelToken(p, ""); err == nil {
		t.Error("empty token accepted")
	}
	if err := verifyCancelToken(&Payment{}, ""); err == nil {
		t.Error("order without a reference must not be cancellable from the return URL")
	}
}
