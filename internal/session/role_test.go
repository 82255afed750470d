package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ParseRole(t *testing.T) {
	tests := []struct {
		input string
		want  Role
	}{
		{"admin", RoleAdmin},
		{"ADMIN", RoleAdmin},
		{"superadmin", RoleAdmin},
		{"editor", RoleEditor},
		{"Editor-Jefe", RoleEditor},
		{"redactor", RoleEditor},
		{"Author", RoleEditor},
		{"writer", RoleEditor},
		{"autor", RoleEditor},
		{"moderator", RoleEditor},
		{"mod", RoleEditor},
		{"viewer", RoleViewer},
		{"listener", RoleViewer},
		{"", RoleViewer},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRole(tt.input))
		})
	}
}

func Test_Role_Satisfies(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		required []Role
		want     bool
	}{
		{"no requirement always passes", RoleViewer, nil, true},
		{"explicitly listed role passes", RoleEditor, []Role{RoleAdmin, RoleEditor}, true},
		{"admin satisfies an editor-only requirement", RoleAdmin, []Role{RoleEditor}, true},
		{"admin satisfies a viewer requirement", RoleAdmin, []Role{RoleViewer}, true},
		{"editor does not satisfy an admin-only requirement", RoleEditor, []Role{RoleAdmin}, false},
		{"viewer does not satisfy an editor requirement", RoleViewer, []Role{RoleAdmin, RoleEditor}, false},
		{"legacy aliases in the requirement are folded", RoleEditor, []Role{"REDACTOR"}, true},
		{"viewer does not satisfy a legacy alias", RoleViewer, []Role{"REDACTOR"}, false},
		{"minimum rank among required roles applies", RoleEditor, []Role{RoleAdmin, RoleViewer}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.role.Satisfies(tt.required...))
		})
	}
}

func Test_IsAdminOnly(t *testing.T) {
	assert.True(t, IsAdminOnly([]Role{RoleAdmin}))
	assert.False(t, IsAdminOnly([]Role{RoleAdmin, RoleEditor}))
	assert.False(t, IsAdminOnly([]Role{RoleEditor}))
	assert.False(t, IsAdminOnly(nil))
}

func Test_Role_Rank(t *testing.T) {
	assert.Greater(t, RoleAdmin.Rank(), RoleEditor.Rank())
	assert.Greater(t, RoleEditor.Rank(), RoleViewer.Rank())
	assert.Equal(t, 0, Role("REDACTOR").Rank())
}
