package treeops_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	gh "github.com/gitstow/gitstow/internal/github"
	"github.com/gitstow/gitstow/internal/treeops"
)

var _ = Describe("Relocator", func() {
	var (
		ctx    context.Context
		client *fakeClient
		coord  treeops.Coordinate
	)

	BeforeEach(func() {
		ctx = context.Background()
		client = newFakeClient()
		coord = treeops.Coordinate{Owner: "acme", Repo: "site", Ref: "main"}
	})

	It("skips a move onto the same path without any network call", func() {
		relocator := treeops.NewRelocator(client, nil)

		status, err := relocator.Relocate(ctx, coord, "docs/a.md", "sha:docs/a.md", "docs/a.md")
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(treeops.StatusSkipped))
		Expect(client.reads).To(BeEmpty())
		Expect(client.writes).To(BeEmpty())
		Expect(client.deletes).To(BeEmpty())
	})

	It("moves a file by writing the destination before deleting the source", func() {
		client.addFile("docs/a.md", "hello")
		relocator := treeops.NewRelocator(client, nil)

		status, err := relocator.Relocate(ctx, coord, "docs/a.md", "sha:docs/a.md", "guides/a.md")
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(treeops.StatusMoved))

		Expect(client.writes).To(HaveLen(1))
		Expect(client.writes[0].path).To(Equal("guides/a.md"))
		Expect(client.writes[0].content).To(Equal("hello"))
		Expect(client.writes[0].existingSHA).To(BeEmpty())

		Expect(client.deletes).To(HaveLen(1))
		Expect(client.deletes[0]).To(Equal(deleteCall{path: "docs/a.md", sha: "sha:docs/a.md"}))
	})

	It("updates an occupied destination in place instead of blind-creating", func() {
		client.addFile("docs/a.md", "hello")
		client.addFile("guides/a.md", "stale")
		relocator := treeops.NewRelocator(client, nil)

		status, err := relocator.Relocate(ctx, coord, "docs/a.md", "sha:docs/a.md", "guides/a.md")
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(treeops.StatusMoved))
		Expect(client.writes).To(HaveLen(1))
		Expect(client.writes[0].existingSHA).To(Equal("sha:guides/a.md"))
	})

	It("fails before mutating anything when the source cannot be read", func() {
		relocator := treeops.NewRelocator(client, nil)

		status, err := relocator.Relocate(ctx, coord, "gone.md", "sha:gone.md", "kept.md")
		Expect(status).To(Equal(treeops.StatusFailed))

		var relErr *treeops.RelocationError
		Expect(errors.As(err, &relErr)).To(BeTrue())
		Expect(relErr.Step).To(Equal("read source"))
		Expect(client.writes).To(BeEmpty())
		Expect(client.deletes).To(BeEmpty())
	})

	It("leaves the source untouched when the destination write fails", func() {
		client.addFile("docs/a.md", "hello")
		client.writeErrs = map[string]error{"guides/a.md": gh.Errorf(gh.KindUnavailable, "boom")}
		relocator := treeops.NewRelocator(client, nil)

		status, err := relocator.Relocate(ctx, coord, "docs/a.md", "sha:docs/a.md", "guides/a.md")
		Expect(status).To(Equal(treeops.StatusFailed))

		var relErr *treeops.RelocationError
		Expect(errors.As(err, &relErr)).To(BeTrue())
		Expect(relErr.Step).To(Equal("write destination"))
		Expect(client.deletes).To(BeEmpty())
		Expect(client.files).To(HaveKey("docs/a.md"))
	})

	It("surfaces a duplicated state when the source delete fails after the write", func() {
		client.addFile("docs/a.md", "hello")
		client.deleteErrs = map[string]error{"docs/a.md": gh.Errorf(gh.KindConflict, "sha mismatch")}
		relocator := treeops.NewRelocator(client, nil)

		status, err := relocator.Relocate(ctx, coord, "docs/a.md", "sha:docs/a.md", "guides/a.md")
		Expect(status).To(Equal(treeops.StatusFailed))

		var relErr *treeops.RelocationError
		Expect(errors.As(err, &relErr)).To(BeTrue())
		Expect(relErr.Step).To(Equal("delete source"))

		// Duplicated, not lost: the content exists at both paths.
		Expect(client.files).To(HaveKey("guides/a.md"))
		Expect(client.files).To(HaveKey("docs/a.md"))
	})

	It("fails when the destination probe errors for a reason other than not-found", func() {
		client.addFile("docs/a.md", "hello")
		client.getFileErrs = map[string]error{"guides/a.md": gh.Errorf(gh.KindRateLimited, "slow down")}
		relocator := treeops.NewRelocator(client, nil)

		status, err := relocator.Relocate(ctx, coord, "docs/a.md", "sha:docs/a.md", "guides/a.md")
		Expect(status).To(Equal(treeops.StatusFailed))

		var relErr *treeops.RelocationError
		Expect(errors.As(err, &relErr)).To(BeTrue())
		Expect(relErr.Step).To(Equal("probe destination"))
		Expect(client.writes).To(BeEmpty())
		Expect(client.deletes).To(BeEmpty())
	})
})
