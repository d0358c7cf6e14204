package sidepost

import (
	"fmt"
	"testing"

	"github.com/getmockd/sidepost/pkg/directive"
	"github.com/getmockd/sidepost/pkg/naming"
)

func BenchmarkSerialize(b *testing.B) {
	for _, n := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("tags_%d", n), func(b *testing.B) {
			store := newTestStore(b)
			post := create(b, store, "post", map[string]any{"title": "bench"})
			for i := range n {
				tag := create(b, store, "tag", map[string]any{"name": fmt.Sprintf("tag %d", i)})
				if err := tag.SetBelongsTo("creator", create(b, store, "user", map[string]any{"name": "u"})); err != nil {
					b.Fatal(err)
				}
				if err := post.AddTo("tags", tag); err != nil {
					b.Fatal(err)
				}
			}
			s := NewSerializer(naming.Default(), nil)
			opts := Options{Sideposting: true, Relationships: directive.MustCompile(map[string]any{"tags": "creator"})}

			b.ReportAllocs()
			b.ResetTimer()
			for b.Loop() {
				if _, err := s.Serialize(post, opts); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkPush(b *testing.B) {
	doc, err := Decode([]byte(postWithAuthor))
	if err != nil {
		b.Fatal(err)
	}
	store := newTestStore(b)

	b.ReportAllocs()
	for b.Loop() {
		if _, err := Push(store, doc); err != nil {
			b.Fatal(err)
		}
	}
}
