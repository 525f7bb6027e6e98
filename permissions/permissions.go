package permissions

// Action names every permission-gated operation in the system.
type Action string

const (
	ActionCourseView      Action = "course:view"
	ActionCourseCreate    Action = "course:create"
	ActionCourseUpdate    Action = "course:update"
	ActionCourseDelete    Action = "course:delete"
	ActionCoursePublish   Action = "course:publish"
	ActionCourseUnpublish Action = "course:unpublish"

	ActionOrderCreate Action = "order:create"
	ActionOrderPay    Action = "order:pay"
	ActionOrderCancel Action = "order:cancel"
	ActionOrderRefund Action = "order:refund"

	ActionCouponCreate Action = "coupon:create"
	ActionCouponGrant  Action = "coupon:grant"
	ActionCouponView   Action = "coupon:view"

	ActionMembershipPurchase    Action = "membership:purchase"
	ActionMembershipRenew       Action = "membership:renew"
	ActionMembershipCancel      Action = "membership:cancel"
	ActionMembershipLevelManage Action = "membership:level:manage"

	ActionEnroll         Action = "enrollment:create"
	ActionProgressUpdate Action = "progress:update"

	ActionWalletDeposit Action = "wallet:deposit"
	ActionWalletView    Action = "wallet:view"

	ActionChatUse Action = "chat:use"

	ActionUserManage Action = "user:manage"
)

// userActions is what every signed-in account can do.
var userActions = []Action{
	ActionCourseView,
	ActionOrderCreate,
	ActionOrderPay,
	ActionOrderCancel,
	ActionCouponView,
	ActionMembershipPurchase,
	ActionMembershipRenew,
	ActionMembershipCancel,
	ActionEnroll,
	ActionProgressUpdate,
	ActionWalletDeposit,
	ActionWalletView,
	ActionChatUse,
}

// teacherActions adds course authoring on top of the user set.
var teacherActions = []Action{
	ActionCourseCreate,
	ActionCourseUpdate,
	ActionCourseDelete,
	ActionCoursePublish,
	ActionCourseUnpublish,
}

// adminActions adds platform management on top of the teacher set.
var adminActions = []Action{
	ActionOrderRefund,
	ActionCouponCreate,
	ActionCouponGrant,
	ActionMembershipLevelManage,
	ActionUserManage,
}

// allowTable maps role -> allowed action set. Built once at init; never
// mutated afterwards, so Evaluate is a pure lookup.
var allowTable = map[string]map[Action]bool{}

func init() {
	grant := func(role string, actions ...[]Action) {
		set := make(map[Action]bool)
		for _, list := range actions {
			for _, a := range list {
				set[a] = true
			}
		}
		allowTable[role] = set
	}

	grant("USER", userActions)
	grant("TEACHER", userActions, teacherActions)
	grant("ADMIN", userActions, teacherActions, adminActions)
}

// Evaluate reports whether role may perform action. Unknown roles and
// unknown actions are denied (fail closed).
func Evaluate(role string, action Action) bool {
	set, ok := allowTable[role]
	if !ok {
		return false
	}
	return set[action]
}

// Roles returns every role the table knows about.
func Roles() []string {
	roles := make([]string, 0, len(allowTable))
	for r := range allowTable {
		roles = append(roles, r)
	}
	return roles
}

// Actions returns every action the table knows about, across all roles.
func Actions() []Action {
	seen := make(map[Action]bool)
	var actions []Action
	for _, set := range allowTable {
		for a := range set {
			if !seen[a] {
				seen[a] = true
				actions = append(actions, a)
			}
		}
	}
	return actions
}
