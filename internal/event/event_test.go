package event

import "testing"

func TestNormalize_RefFromBranch(t *testing.T) {
	e := Event{Kind: KindPush, Branch: "master"}.Normalize()
	if e.Ref != "refs/heads/master" {
		t.Errorf("expected ref refs/heads/master, got %q", e.Ref)
	}
}

func TestNormalize_RefFromTag(t *testing.T) {
	e := Event{Kind: KindTag, Tag: "v1.2.0"}.Normalize()
	if e.Ref != "refs/tags/v1.2.0" {
		t.Errorf("expected ref refs/tags/v1.2.0, got %q", e.Ref)
	}
}

func TestNormalize_BranchFromRef(t *testing.T) {
	e := Event{Ref: "refs/heads/develop"}.Normalize()
	if e.Branch != "develop" {
		t.Errorf("expected branch develop, got %q", e.Branch)
	}
	if e.Kind != KindPush {
		t.Errorf("expected kind push, got %q", e.Kind)
	}
}

func TestNormalize_TagFromRef(t *testing.T) {
	e := Event{Ref: "refs/tags/v2.0.0"}.Normalize()
	if e.Tag != "v2.0.0" {
		t.Errorf("expected tag v2.0.0, got %q", e.Tag)
	}
	if e.Kind != KindTag {
		t.Errorf("expected kind tag, got %q", e.Kind)
	}
}

func TestValidKind(t *testing.T) {
	for _, k := range []Kind{KindPush, KindTag, KindPullRequest, KindCron, KindCustom} {
		if !ValidKind(k) {
			t.Errorf("expected %q to be valid", k)
		}
	}
	if ValidKind("deploy") {
		t.Error("expected unknown kind to be invalid")
	}
}
