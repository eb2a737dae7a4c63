package ident

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims 定义了 JWT 载荷结构。
//
// 内嵌 jwt.RegisteredClaims 以支持标准声明（exp, sub, iss 等），
// 同时扩展了薪酬系统常用的业务字段。
type Claims struct {
	jwt.RegisteredClaims

	// EmployeeID 员工编号，跨租户全局唯一
	EmployeeID string `json:"emp_id,omitempty"`

	// TenantID 租户编号
	TenantID string `json:"tenant,omitempty"`

	// Roles 角色列表（如 "hr", "manager"）
	Roles []string `json:"roles,omitempty"`
}

// Identity 返回用于缓存键隔离的调用方标识
//
// 优先使用 EmployeeID，回退到标准 Subject 声明。
func (c *Claims) Identity() string {
	if c == nil {
		return ""
	}
	if c.EmployeeID != "" {
		return c.EmployeeID
	}
	return c.Subject
}
