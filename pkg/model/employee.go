// Package model 定义晚班/居家办公计划的核心数据模型
package model

// ParticipationSchema 员工参与方式
type ParticipationSchema string

const (
	SchemaHomeOfficeOnly ParticipationSchema = "home_office_only" // 仅居家办公
	SchemaLateShiftOnly  ParticipationSchema = "late_shift_only"  // 仅晚班
	SchemaBoth           ParticipationSchema = "both"             // 两者都参与
)

// IsValid 检查参与方式是否合法
func (s ParticipationSchema) IsValid() bool {
	switch s {
	case SchemaHomeOfficeOnly, SchemaLateShiftOnly, SchemaBoth:
		return true
	}
	return false
}

// Employee 员工
type Employee struct {
	ID     string              `json:"id"`
	Name   string              `json:"name"`
	Schema ParticipationSchema `json:"schema"`

	// 不得与该员工同日居家办公的员工ID（按优先级排序）
	Backups []string `json:"backups,omitempty"`
}

// CanWorkLateShift 检查员工是否参与晚班
func (e *Employee) CanWorkLateShift() bool {
	return e.Schema == SchemaLateShiftOnly || e.Schema == SchemaBoth
}

// CanWorkHomeOffice 检查员工是否参与居家办公
func (e *Employee) CanWorkHomeOffice() bool {
	return e.Schema == SchemaHomeOfficeOnly || e.Schema == SchemaBoth
}

// HasBackup 检查某员工是否为该员工的备岗
func (e *Employee) HasBackup(id string) bool {
	for _, b := range e.Backups {
		if b == id {
			return true
		}
	}
	return false
}
