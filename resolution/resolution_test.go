/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package resolution

import (
	"errors"
	"fmt"
	"testing"
)

func TestOutcome(t *testing.T) {
	skip := Skip()
	if !skip.Skipped() {
		t.Error("expected Skip to be skipped")
	}
	if _, ok := skip.Resolution(); ok {
		t.Error("expected Skip to carry no resolution")
	}

	hit := Resolved(SourceFile("/app/index.js"))
	r, ok := hit.Resolution()
	if !ok || hit.Skipped() {
		t.Fatal("expected Resolved to carry a resolution")
	}
	if r.Type != TypeSourceFile || r.FilePath != "/app/index.js" {
		t.Errorf("unexpected resolution %+v", r)
	}
}

func TestResolutionPaths(t *testing.T) {
	if got := Empty().Paths(); got != nil {
		t.Errorf("Empty().Paths() = %v, want nil", got)
	}
	assets := AssetFiles("/a/icon.png", "/a/icon@2x.png")
	if got := assets.Paths(); len(got) != 2 {
		t.Errorf("AssetFiles paths = %v", got)
	}
	if !assets.Equal(AssetFiles("/a/icon.png", "/a/icon@2x.png")) {
		t.Error("expected equal asset resolutions")
	}
	if assets.Equal(AssetFiles("/a/icon.png")) {
		t.Error("expected different asset resolutions")
	}
	if !(Resolution{}).IsZero() {
		t.Error("zero value should be IsZero")
	}
}

func TestErrorClassification(t *testing.T) {
	notFound := NotFound("/app/index.js", "missing")
	wrapped := fmt.Errorf("chain: %w", notFound)

	if !IsNotFound(notFound) || !IsNotFound(wrapped) {
		t.Error("expected not-found classification through wrapping")
	}
	if IsFatal(wrapped) {
		t.Error("not-found must not be fatal")
	}

	fatal := Fatalf("/app/index.js", "pkg", "malformed package.json")
	if IsNotFound(fatal) || !IsFatal(fatal) {
		t.Error("expected fatal classification")
	}

	plain := errors.New("boom")
	if !IsFatal(plain) {
		t.Error("unclassified errors are fatal")
	}
	if IsFatal(nil) {
		t.Error("nil is not fatal")
	}
}

func TestErrorMessageExcludesImportStack(t *testing.T) {
	err := NotFound("/app/index.js", "missing", FileCandidates{
		FilePathPrefix: "/app/missing",
		CandidateExts:  []string{".js", ".ts"},
	})
	before := err.Error()
	err.ImportStack = "Import stack:\n  app/index.js"
	if err.Error() != before {
		t.Error("attaching an import stack must not change the message")
	}
	if err.Kind != KindNotFound {
		t.Error("attaching an import stack must not change the kind")
	}
}

func TestFileCandidatesString(t *testing.T) {
	tests := []struct {
		name string
		c    FileCandidates
		want string
	}{
		{
			name: "cross product",
			c: FileCandidates{
				FilePathPrefix: "/app/Foo",
				CandidateExts:  []string{".ios.js", ".native.js", ".js", ".ios.ts", ".native.ts", ".ts"},
			},
			want: "/app/Foo(.ios|.native|)(.js|.ts)",
		},
		{
			name: "single modifier",
			c: FileCandidates{
				FilePathPrefix: "/app/Foo",
				CandidateExts:  []string{".web.js", ".web.ts"},
			},
			want: "/app/Foo.web(.js|.ts)",
		},
		{
			name: "ragged",
			c: FileCandidates{
				FilePathPrefix: "/app/Foo",
				CandidateExts:  []string{".ios.js", ".js", ".ts"},
			},
			want: "/app/Foo(.ios.js|.js|.ts)",
		},
		{
			name: "no extensions",
			c:    FileCandidates{FilePathPrefix: "/app/Foo.png"},
			want: "/app/Foo.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
