package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateUserRole(t *testing.T) {
	assert.True(t, Evaluate("USER", ActionCourseView))
	assert.True(t, Evaluate("USER", ActionOrderCreate))
	assert.True(t, Evaluate("USER", ActionEnroll))
	assert.True(t, Evaluate("USER", ActionChatUse))

	assert.False(t, Evaluate("USER", ActionCourseCreate))
	assert.False(t, Evaluate("USER", ActionCoursePublish))
	assert.False(t, Evaluate("USER", ActionOrderRefund))
	assert.False(t, Evaluate("USER", ActionCouponCreate))
	assert.False(t, Evaluate("USER", ActionMembershipLevelManage))
	assert.False(t, Evaluate("USER", ActionUserManage))
}

func TestEvaluateTeacherRole(t *testing.T) {
	// Teachers keep the whole user set
	assert.True(t, Evaluate("TEACHER", ActionCourseView))
	assert.True(t, Evaluate("TEACHER", ActionOrderCreate))

	assert.True(t, Evaluate("TEACHER", ActionCourseCreate))
	assert.True(t, Evaluate("TEACHER", ActionCoursePublish))
	assert.True(t, Evaluate("TEACHER", ActionCourseUnpublish))

	assert.False(t, Evaluate("TEACHER", ActionOrderRefund))
	assert.False(t, Evaluate("TEACHER", ActionCouponCreate))
	assert.False(t, Evaluate("TEACHER", ActionUserManage))
}

func TestEvaluateAdminRole(t *testing.T) {
	for _, action := range Actions() {
		assert.True(t, Evaluate("ADMIN", action), "admin should be allowed %s", action)
	}
}

func TestEvaluateFailClosed(t *testing.T) {
	// Unknown role
	assert.False(t, Evaluate("SUPERUSER", ActionCourseView))
	assert.False(t, Evaluate("", ActionCourseView))

	// Unknown action
	assert.False(t, Evaluate("USER", Action("course:destroy")))
	assert.False(t, Evaluate("ADMIN", Action("")))

	// Case matters; lowercase role names are not in the table
	assert.False(t, Evaluate("user", ActionCourseView))
}

// Every (role, action) pair not in the allow table must be denied. Walk the
// full cross product and cross-check against the table itself.
func TestEvaluateExhaustive(t *testing.T) {
	for _, role := range Roles() {
		for _, action := range Actions() {
			expected := allowTable[role][action]
			assert.Equal(t, expected, Evaluate(role, action), "role=%s action=%s", role, action)
		}
	}
}

func TestEvaluateHasNoSideEffects(t *testing.T) {
	before := len(allowTable["USER"])
	Evaluate("USER", Action("nonexistent:action"))
	Evaluate("GHOST", ActionCourseView)
	assert.Equal(t, before, len(allowTable["USER"]))
	_, exists := allowTable["GHOST"]
	assert.False(t, exists)
}
