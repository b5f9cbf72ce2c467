package treeops_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	gh "github.com/gitstow/gitstow/internal/github"
	"github.com/gitstow/gitstow/internal/treeops"
)

var _ = Describe("Mover", func() {
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

	setListing := func(paths ...string) {
		var entries []gh.TreeEntry
		for _, path := range paths {
			entries = append(entries, gh.TreeEntry{Path: path, SHA: "sha:" + path, Kind: gh.EntryKindFile})
			client.addFile(path, "content of "+path)
		}
		client.listing = gh.TreeListing{Entries: entries}
	}

	It("rejects moving a folder onto itself before issuing any call", func() {
		mover := treeops.NewMover(client, nil)

		_, err := mover.Move(ctx, coord, []treeops.Item{{Path: "x", Kind: treeops.ItemDir}}, "x")

		var validationErr *treeops.ValidationError
		Expect(errors.As(err, &validationErr)).To(BeTrue())
		Expect(client.reads).To(BeEmpty())
		Expect(client.writes).To(BeEmpty())
		Expect(client.deletes).To(BeEmpty())
	})

	It("rejects moving a folder into its own subfolder before issuing any call", func() {
		mover := treeops.NewMover(client, nil)

		_, err := mover.Move(ctx, coord, []treeops.Item{{Path: "x", Kind: treeops.ItemDir}}, "x/y")

		var validationErr *treeops.ValidationError
		Expect(errors.As(err, &validationErr)).To(BeTrue())
		Expect(client.reads).To(BeEmpty())
		Expect(client.writes).To(BeEmpty())
		Expect(client.deletes).To(BeEmpty())
	})

	It("moves a directory preserving its internal structure", func() {
		setListing("src/utils/a.js", "src/utils/nested/b.js", "src/other.js")
		mover := treeops.NewMover(client, nil)

		summary, err := mover.Move(ctx, coord, []treeops.Item{{Path: "src/utils", Kind: treeops.ItemDir}}, "lib")
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Moved).To(Equal(2))
		Expect(summary.Skipped).To(BeZero())
		Expect(summary.Details).To(HaveLen(2))
		Expect(summary.Details[0].Dest).To(Equal("lib/utils/a.js"))
		Expect(summary.Details[1].Dest).To(Equal("lib/utils/nested/b.js"))

		Expect(client.writes).To(HaveLen(2))
		Expect(client.writes[0].path).To(Equal("lib/utils/a.js"))
		Expect(client.writes[1].path).To(Equal("lib/utils/nested/b.js"))
		Expect(client.deletes).To(HaveLen(2))
		Expect(client.files).NotTo(HaveKey("src/utils/a.js"))
		Expect(client.files).To(HaveKey("src/other.js"))
	})

	It("skips every contained file when a folder is moved into its current parent", func() {
		setListing("src/utils/a.js", "src/utils/nested/b.js")
		mover := treeops.NewMover(client, nil)

		summary, err := mover.Move(ctx, coord, []treeops.Item{{Path: "src/utils", Kind: treeops.ItemDir}}, "src")
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Skipped).To(Equal(2))
		Expect(summary.Moved).To(BeZero())
		Expect(client.writes).To(BeEmpty())
		Expect(client.deletes).To(BeEmpty())
	})

	It("skips a file moved into its own current folder without any call", func() {
		client.addFile("a.txt", "hello")
		mover := treeops.NewMover(client, nil)

		summary, err := mover.Move(ctx, coord, []treeops.Item{{Path: "a.txt", ContentID: "sha:a.txt", Kind: treeops.ItemFile}}, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Skipped).To(Equal(1))
		Expect(client.reads).To(BeEmpty())
		Expect(client.writes).To(BeEmpty())
		Expect(client.deletes).To(BeEmpty())
	})

	It("continues past a failing file and reports a mixed outcome list", func() {
		setListing("docs/a.md", "docs/b.md")
		client.writeErrs = map[string]error{"wiki/docs/a.md": gh.Errorf(gh.KindUnavailable, "boom")}
		mover := treeops.NewMover(client, nil)

		summary, err := mover.Move(ctx, coord, []treeops.Item{{Path: "docs", Kind: treeops.ItemDir}}, "wiki")
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Failed).To(Equal(1))
		Expect(summary.Moved).To(Equal(1))
		Expect(summary.Details[0].Status).To(Equal(treeops.StatusFailed))
		Expect(summary.Details[0].Detail).To(Equal("write destination (unavailable)"))
		Expect(summary.Details[1].Status).To(Equal(treeops.StatusMoved))
	})

	It("relocates plain file items directly under the destination", func() {
		client.addFile("a.txt", "hello")
		mover := treeops.NewMover(client, nil)

		summary, err := mover.Move(ctx, coord, []treeops.Item{{Path: "a.txt", ContentID: "sha:a.txt", Kind: treeops.ItemFile}}, "archive")
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Moved).To(Equal(1))
		Expect(client.writes[0].path).To(Equal("archive/a.txt"))
		Expect(client.deletes[0].path).To(Equal("a.txt"))
	})

	It("handles a mixed batch of files and directories independently", func() {
		setListing("img/logo.png", "img/icons/x.svg")
		client.addFile("notes.txt", "scratch")
		mover := treeops.NewMover(client, nil)

		items := []treeops.Item{
			{Path: "notes.txt", ContentID: "sha:notes.txt", Kind: treeops.ItemFile},
			{Path: "img", Kind: treeops.ItemDir},
		}
		summary, err := mover.Move(ctx, coord, items, "assets")
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Moved).To(Equal(3))
		Expect(summary.Details[0].Dest).To(Equal("assets/notes.txt"))
		Expect(summary.Details[1].Dest).To(Equal("assets/img/logo.png"))
		Expect(summary.Details[2].Dest).To(Equal("assets/img/icons/x.svg"))
	})

	It("fails a directory item when the repository listing is truncated", func() {
		setListing("big/a.txt")
		client.listing.Truncated = true
		mover := treeops.NewMover(client, nil)

		summary, err := mover.Move(ctx, coord, []treeops.Item{{Path: "big", Kind: treeops.ItemDir}}, "moved")
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Failed).To(Equal(1))
		Expect(summary.Details[0].Detail).To(ContainSubstring("truncated"))
		Expect(client.writes).To(BeEmpty())
		Expect(client.deletes).To(BeEmpty())
	})

	It("fails a directory item when enumeration itself fails", func() {
		client.listTreeErr = gh.Errorf(gh.KindRateLimited, "slow down")
		mover := treeops.NewMover(client, nil)

		summary, err := mover.Move(ctx, coord, []treeops.Item{{Path: "docs", Kind: treeops.ItemDir}}, "wiki")
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Failed).To(Equal(1))
		Expect(summary.Details[0].Detail).To(Equal("rate_limited"))
		Expect(client.writes).To(BeEmpty())
	})
})
