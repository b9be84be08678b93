package report

import (
	"fmt"
	"io"

	"github.com/disiqueira/gotree/v3"
	"github.com/jgivc/musicsync/internal/entity"
)

// RenderSummary writes the end-of-run statistics and a per-collection tree.
func RenderSummary(w io.Writer, s *entity.Summary) {
	t := s.Totals
	sizeMB := float64(t.Bytes) / bytesInMB

	var speed float64
	if secs := s.Elapsed.Seconds(); secs > 0 {
		speed = sizeMB / secs
	}

	if s.Interrupted {
		fmt.Fprintln(w, "Sync interrupted. Run again to resume from where you left off.")
	} else {
		fmt.Fprintln(w, "Sync complete!")
	}

	fmt.Fprintf(w, "  Downloaded:    %d files\n", t.Downloaded)
	fmt.Fprintf(w, "  Skipped:       %d files\n", t.Skipped)
	fmt.Fprintf(w, "  Failed:        %d files\n", t.Failed)
	fmt.Fprintf(w, "  Total size:    %.1f MB\n", sizeMB)
	fmt.Fprintf(w, "  Total time:    %s\n", formatDuration(s.Elapsed))
	fmt.Fprintf(w, "  Average speed: %.1f MB/s\n", speed)

	tree := gotree.New(fmt.Sprintf("Saved to %s", s.Root))
	for _, c := range s.Collections {
		if c.ListErr != nil {
			tree.Add(fmt.Sprintf("%s: listing failed: %v", c.Name, c.ListErr))

			continue
		}

		tree.Add(fmt.Sprintf("%s: %d files (downloaded %d, skipped %d, failed %d, %.1f MB)",
			c.Name, c.Found, c.Downloaded, c.Skipped, c.Failed, float64(c.Bytes)/bytesInMB))
	}
	fmt.Fprint(w, tree.Print())

	if t.Failed > 0 {
		fmt.Fprintln(w, "Some files failed. Run again to retry them.")
	}
}
