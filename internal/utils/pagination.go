// internal/utils/pagination.go
package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PageParams describes optional zero-based paging. Paginate is false unless
// both page and limit were supplied as numbers.
type PageParams struct {
	Page     int  `json:"page"`
	Limit    int  `json:"limit"`
	Paginate bool `json:"-"`
}

func GetPageParams(c *gin.Context) PageParams {
	page, pageErr := strconv.Atoi(c.Query("page"))
	limit, limitErr := strconv.Atoi(c.Query("limit"))
	if pageErr != nil || limitErr != nil || page < 0 || limit <= 0 {
		return PageParams{}
	}
	return PageParams{Page: page, Limit: limit, Paginate: true}
}

func (p PageParams) Offset() int {
	if !p.Paginate {
		return 0
	}
	return p.Limit * p.Page
}

// OrderNumber is the 1-based position of the index-th row across all pages.
func (p PageParams) OrderNumber(index int) int {
	return index + 1 + p.Offset()
}

// Window returns the slice bounds of the current page within n rows.
func (p PageParams) Window(n int) (int, int) {
	if !p.Paginate {
		return 0, n
	}
	start := p.Offset()
	if start > n {
		start = n
	}
	end := start + p.Limit
	if end > n {
		end = n
	}
	return start, end
}

func ApplyPagination(db *gorm.DB, params PageParams) *gorm.DB {
	if !params.Paginate {
		return db
	}
	return db.Offset(params.Offset()).Limit(params.Limit)
}
