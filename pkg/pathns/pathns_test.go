package pathns_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lightmvc/lightmvc/pkg/pathns"
)

func TestFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		sep  string
		want pathns.Namespace
	}{
		{name: "absolute", path: "/foo/bar/baz", sep: "/", want: pathns.Namespace{FileName: "baz", DomainName: "foo"}},
		{name: "deep", path: "app/blog/controllers/post", sep: "/", want: pathns.Namespace{FileName: "post", DomainName: "blog"}},
		{name: "custom separator", path: `shop\controllers\cart`, sep: `\`, want: pathns.Namespace{FileName: "cart", DomainName: "shop"}},
		{name: "two segments", path: "bar/baz", sep: "/", want: pathns.Namespace{FileName: "baz"}},
		{name: "single segment", path: "baz", sep: "/", want: pathns.Namespace{FileName: "baz"}},
		{name: "empty", path: "", sep: "/", want: pathns.Namespace{}},
		{name: "default separator", path: "a/b/c", sep: "", want: pathns.Namespace{FileName: "c", DomainName: "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, pathns.FromPath(tt.path, tt.sep))
		})
	}
}
