package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"员工无效", InvalidEmployee("X"), http.StatusBadRequest},
		{"周无效", InvalidWeek(30, 14, 17), http.StatusBadRequest},
		{"参数无效", InvalidParameters("同一员工"), http.StatusBadRequest},
		{"不在晚班", NotOnLateShift("E2", 14), http.StatusConflict},
		{"上期计划无效", InvalidPriorPlan(fmt.Errorf("坏文件")), http.StatusUnprocessableEntity},
		{"未找到", NotFound("计划", "1"), http.StatusNotFound},
		{"普通错误", fmt.Errorf("x"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, GetHTTPStatus(tt.err))
		})
	}
}

func TestWrappedCode(t *testing.T) {
	err := fmt.Errorf("策略文件: %w", NotOnLateShift("E1", 15))

	assert.True(t, Is(err, CodeNotOnLateShift))
	assert.False(t, Is(err, CodeInvalidWeek))
	assert.Equal(t, CodeNotOnLateShift, GetCode(err))
	assert.Equal(t, CodeUnknown, GetCode(fmt.Errorf("x")))

	var appErr *AppError
	assert.True(t, As(err, &appErr))
	assert.Equal(t, CodeNotOnLateShift, appErr.Code)
}

func TestValidationErrors(t *testing.T) {
	ve := &ValidationErrors{}
	assert.False(t, ve.HasErrors())

	ve.Add("year", "年份必须为正数")
	ve.Add("to", "日期格式错误")
	assert.True(t, ve.HasErrors())
	assert.Contains(t, ve.Error(), "year")

	appErr := ve.ToAppError()
	assert.Equal(t, CodeValidationFail, appErr.Code)
	assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
	assert.Len(t, appErr.Fields, 2)
}
