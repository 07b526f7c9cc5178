package repository

import (
	"classroom_backend/internal/util"
	"errors"

	"gorm.io/gorm"
)

// translate 把 gorm 的错误转换为 util 中的哨兵错误
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return util.ErrRecordNotFound
	}
	return err
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

type countRow struct {
	GroupKey string
	N        int64
}

func toCountMap(rows []countRow) map[string]int64 {
	m := make(map[string]int64, len(rows))
	for _, r := range rows {
		m[r.GroupKey] = r.N
	}
	return m
}
