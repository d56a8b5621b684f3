package service

import (
	"errors"
	"time"
)

const (
	listDefaultPage = 1
	listDefaultSize = 20
	listMaxPageSize = 200
)

var (
	ErrInvalidUserID = errors.New("invalid user id")
)

func normalizeListPagination(page, pageSize int) (int, int) {
	if page <= 0 {
		page = listDefaultPage
	}
	if pageSize <= 0 {
		pageSize = listDefaultSize
	}
	if pageSize > listMaxPageSize {
		pageSize = listMaxPageSize
	}
	return page, pageSize
}

func pageToPagination(page, pageSize int) (int32, int32) {
	page, pageSize = normalizeListPagination(page, pageSize)
	return int32(pageSize), int32((page - 1) * pageSize)
}

func cloneTimePtr(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	clone := *v
	return &clone
}

func formatTimePtr(v *time.Time) interface{} {
	if v == nil {
		return nil
	}
	return v.UTC().Format(time.RFC3339Nano)
}

func strPtr(v string) *string {
	return &v
}
