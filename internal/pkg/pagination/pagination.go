package pagination

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Normalize clamps page and pageSize to usable values and returns the
// matching SQL offset.
func Normalize(page, pageSize *int) (offset int) {
	if *page < 1 {
		*page = 1
	}
	if *pageSize < 1 {
		*pageSize = DefaultPageSize
	}
	if *pageSize > MaxPageSize {
		*pageSize = MaxPageSize
	}
	return (*page - 1) * *pageSize
}

func TotalPages(total int64, pageSize int) int {
	if pageSize < 1 {
		return 0
	}
	pages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		pages++
	}
	return pages
}
