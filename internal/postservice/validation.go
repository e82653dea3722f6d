package postservice

import (
	"regexp"
	"strings"

	"github.com/sushihentaime/lumina/internal/common"
)

var (
	SlugRX    = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	nonSlugRX = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slugify lowercases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	return strings.Trim(nonSlugRX.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

func validatePost(v *common.Validator, p *Post) {
	v.Check(p.ID != "", "id", "must be provided")
	v.Check(v.CheckStringLength(p.Title, 0, 200), "title", "must not be more than 200 characters long")
	v.Check(p.Slug != "", "slug", "must be provided")
	v.Check(p.Slug == "" || SlugRX.MatchString(p.Slug), "slug", "must only contain lowercase letters, numbers, and dashes")
	v.Check(p.Status.Valid(), "status", "must be one of draft, published, scheduled")
	v.Check(p.Status != StatusScheduled || p.ScheduledFor != nil, "scheduledFor", "must be provided for scheduled posts")

	validateBlocks(v, p.Blocks)
}

func validateBlocks(v *common.Validator, blocks []ContentBlock) {
	seen := make(map[string]bool, len(blocks))
	for _, b := range blocks {
		v.Check(b.Type.Valid(), "blocks", "contains a block with an unknown type")
		v.Check(!seen[b.ID], "blocks", "block ids must be unique")
		seen[b.ID] = true
	}
}

func validateID(v *common.Validator, id, name string) {
	v.Check(strings.TrimSpace(id) != "", name, "must be provided")
}

func validateStatus(v *common.Validator, status Status) {
	v.Check(status.Valid(), "status", "must be one of draft, published, scheduled")
}
