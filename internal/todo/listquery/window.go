package listquery

// WindowSize is the number of page links shown at once.
const WindowSize = 5

// Window returns the page numbers to render for page out of totalPages: all
// of them when they fit, otherwise a window centered on page and clamped at
// both ends.
func Window(page, totalPages int) []int {
	if totalPages <= 0 {
		return nil
	}
	page = min(max(page, 1), totalPages)

	start := 1
	if totalPages > WindowSize {
		start = page - WindowSize/2
		start = max(start, 1)
		start = min(start, totalPages-WindowSize+1)
	}
	end := min(start+WindowSize-1, totalPages)

	pages := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}
	return pages
}
