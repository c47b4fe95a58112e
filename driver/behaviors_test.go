package driver

import (
	"errors"
	"testing"
	"time"
)

func TestBehaviorsTypedReads(t *testing.T) {
	b := Behaviors{
		"connect_timeout": 2 * time.Second,
		"retry_delay":     "250ms",
		"retries":         3,
		"tcp_nodelay":     true,
	}

	if d, ok, err := b.Duration("connect_timeout"); err != nil || !ok || d != 2*time.Second {
		t.Fatalf("Duration: d=%v ok=%v err=%v", d, ok, err)
	}
	if d, ok, err := b.Duration("retry_delay"); err != nil || !ok || d != 250*time.Millisecond {
		t.Fatalf("Duration from string: d=%v ok=%v err=%v", d, ok, err)
	}
	if n, ok, err := b.Int("retries"); err != nil || !ok || n != 3 {
		t.Fatalf("Int: n=%v ok=%v err=%v", n, ok, err)
	}
	if v, ok, err := b.Bool("tcp_nodelay"); err != nil || !ok || !v {
		t.Fatalf("Bool: v=%v ok=%v err=%v", v, ok, err)
	}
	if _, ok, err := b.Duration("absent"); err != nil || ok {
		t.Fatalf("absent name: ok=%v err=%v", ok, err)
	}
	// int seconds convention
	if d, _, err := (Behaviors{"timeout": 5}).Duration("timeout"); err != nil || d != 5*time.Second {
		t.Fatalf("int seconds: d=%v err=%v", d, err)
	}
}

func TestBehaviorsMalformedValues(t *testing.T) {
	if _, _, err := (Behaviors{"timeout": "soon"}).Duration("timeout"); err == nil {
		t.Fatalf("unparseable duration should fail")
	}
	if _, _, err := (Behaviors{"retries": "three"}).Int("retries"); err == nil {
		t.Fatalf("non-int should fail")
	}
	if _, _, err := (Behaviors{"failover": 1}).Bool("failover"); err == nil {
		t.Fatalf("non-bool should fail")
	}
}

func TestBehaviorsUnknown(t *testing.T) {
	b := Behaviors{"timeout": 1, "bogus": true, "zz": 1}
	got := b.Unknown("timeout")
	if len(got) != 2 || got[0] != "bogus" || got[1] != "zz" {
		t.Fatalf("Unknown: %v", got)
	}
}

func TestContainedClassification(t *testing.T) {
	inner := errors.New("io timeout")
	if !Contained(AsServer("set", "k", inner)) {
		t.Fatalf("ServerError must be contained")
	}
	if !Contained(AsClient("dial", inner)) {
		t.Fatalf("ClientError must be contained")
	}
	if Contained(inner) {
		t.Fatalf("plain errors must propagate")
	}
	if Contained(ErrCacheMiss) || Contained(ErrNotStored) {
		t.Fatalf("expected outcomes are not faults")
	}
	// wrapped faults stay recognizable
	wrapped := errors.Join(errors.New("outer"), AsServer("get", "k", inner))
	if !Contained(wrapped) {
		t.Fatalf("wrapped ServerError must stay contained")
	}
	if AsServer("set", "k", nil) != nil || AsClient("dial", nil) != nil {
		t.Fatalf("nil-safety broken")
	}
}
