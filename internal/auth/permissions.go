package auth

// Permission names checked by the role administration surfaces.
const (
	PermRolesView       = "roles.view"
	PermRolesCreate     = "roles.create"
	PermRolesEdit       = "roles.edit"
	PermRolesDelete     = "roles.delete"
	PermPermissionsView = "permissions.view"
)

// CategoryLabel maps a permission category tag to its display label.
type CategoryLabel struct {
	Category string
	Label    string
}

// PermissionCategories is the fixed category → label table used to group
// permissions in the role editor. Order is display order.
var PermissionCategories = []CategoryLabel{
	{Category: "dashboard", Label: "Dashboard"},
	{Category: "users", Label: "User Management"},
	{Category: "roles", Label: "Role Management"},
	{Category: "permissions", Label: "Permission Management"},
	{Category: "academic_years", Label: "Academic Years"},
	{Category: "semesters", Label: "Semesters"},
	{Category: "schools", Label: "Schools"},
	{Category: "programs", Label: "Programs"},
	{Category: "units", Label: "Units"},
	{Category: "classes", Label: "Classes"},
	{Category: "enrollments", Label: "Enrollments"},
	{Category: "classrooms", Label: "Classrooms"},
	{Category: "class_timetables", Label: "Class Timetables"},
	{Category: "exam_timetables", Label: "Exam Timetables"},
	{Category: "exam_rooms", Label: "Exam Rooms"},
	{Category: "failed_exams", Label: "Failed Exam Schedules"},
	{Category: "reports", Label: "Reports"},
	{Category: "settings", Label: "Settings"},
	{Category: "faculty_sces", Label: "Faculty: Computing & Engineering Sciences"},
	{Category: "faculty_sbs", Label: "Faculty: Business School"},
	{Category: "faculty_shss", Label: "Faculty: Humanities & Social Sciences"},
	{Category: "general", Label: "General"},
}

// CategoryLabelFor returns the display label for a category, falling back to
// the tag itself for categories missing from the table.
func CategoryLabelFor(category string) string {
	for _, c := range PermissionCategories {
		if c.Category == category {
			return c.Label
		}
	}
	return category
}

// PermissionSeed describes a permission created by the bootstrap migration.
type PermissionSeed struct {
	Name        string
	Category    string
	Description string
	IsCore      bool
}

// PermissionCatalog is every permission the system knows about.
var PermissionCatalog = []PermissionSeed{
	{Name: "dashboard.view", Category: "dashboard", Description: "View the dashboard", IsCore: true},

	{Name: "users.view", Category: "users", Description: "View users", IsCore: true},
	{Name: "users.create", Category: "users", Description: "Create users", IsCore: true},
	{Name: "users.edit", Category: "users", Description: "Edit users and their roles", IsCore: true},
	{Name: "users.delete", Category: "users", Description: "Delete users", IsCore: true},

	{Name: PermRolesView, Category: "roles", Description: "View roles", IsCore: true},
	{Name: PermRolesCreate, Category: "roles", Description: "Create and clone roles", IsCore: true},
	{Name: PermRolesEdit, Category: "roles", Description: "Edit dynamic roles", IsCore: true},
	{Name: PermRolesDelete, Category: "roles", Description: "Delete dynamic roles", IsCore: true},
	{Name: PermPermissionsView, Category: "permissions", Description: "View permissions", IsCore: true},

	{Name: "academic_years.view", Category: "academic_years", Description: "View academic years"},
	{Name: "academic_years.manage", Category: "academic_years", Description: "Create, edit and delete academic years"},
	{Name: "semesters.view", Category: "semesters", Description: "View semesters"},
	{Name: "semesters.manage", Category: "semesters", Description: "Create, edit and delete semesters"},
	{Name: "schools.view", Category: "schools", Description: "View schools"},
	{Name: "schools.manage", Category: "schools", Description: "Create, edit and delete schools"},
	{Name: "programs.view", Category: "programs", Description: "View programs"},
	{Name: "programs.manage", Category: "programs", Description: "Create, edit and delete programs"},
	{Name: "units.view", Category: "units", Description: "View units"},
	{Name: "units.manage", Category: "units", Description: "Create, edit and delete units"},
	{Name: "classes.view", Category: "classes", Description: "View classes"},
	{Name: "classes.manage", Category: "classes", Description: "Create, edit and delete classes"},
	{Name: "enrollments.view", Category: "enrollments", Description: "View enrollments"},
	{Name: "enrollments.manage", Category: "enrollments", Description: "Enroll and unenroll students"},
	{Name: "classrooms.view", Category: "classrooms", Description: "View classrooms"},
	{Name: "classrooms.manage", Category: "classrooms", Description: "Create, edit and delete classrooms"},
	{Name: "class_timetables.view", Category: "class_timetables", Description: "View class timetables"},
	{Name: "class_timetables.manage", Category: "class_timetables", Description: "Edit class timetables"},
	{Name: "exam_timetables.view", Category: "exam_timetables", Description: "View exam timetables"},
	{Name: "exam_timetables.manage", Category: "exam_timetables", Description: "Edit exam timetables"},
	{Name: "exam_rooms.view", Category: "exam_rooms", Description: "View exam rooms"},
	{Name: "exam_rooms.manage", Category: "exam_rooms", Description: "Create, edit and delete exam rooms"},
	{Name: "failed_exams.view", Category: "failed_exams", Description: "View failed exam schedules"},
	{Name: "failed_exams.manage", Category: "failed_exams", Description: "Schedule supplementary exams"},
	{Name: "reports.view", Category: "reports", Description: "View reports"},
	{Name: "reports.export", Category: "reports", Description: "Export reports"},
	{Name: "settings.view", Category: "settings", Description: "View settings", IsCore: true},
	{Name: "settings.manage", Category: "settings", Description: "Change system settings", IsCore: true},

	{Name: "faculty_sces.timetables.manage", Category: "faculty_sces", Description: "Manage SCES timetables"},
	{Name: "faculty_sces.enrollments.manage", Category: "faculty_sces", Description: "Manage SCES enrollments"},
	{Name: "faculty_sbs.timetables.manage", Category: "faculty_sbs", Description: "Manage SBS timetables"},
	{Name: "faculty_sbs.enrollments.manage", Category: "faculty_sbs", Description: "Manage SBS enrollments"},
	{Name: "faculty_shss.timetables.manage", Category: "faculty_shss", Description: "Manage SHSS timetables"},
	{Name: "faculty_shss.enrollments.manage", Category: "faculty_shss", Description: "Manage SHSS enrollments"},

	{Name: "profile.view", Category: "general", Description: "View own profile"},
}

// CoreRoleSeed is a core role created by the bootstrap migration together
// with its initial permission set.
type CoreRoleSeed struct {
	Name        string
	Description string
	Permissions []string
}

// AllPermissionNames returns the names in PermissionCatalog.
func AllPermissionNames() []string {
	names := make([]string, 0, len(PermissionCatalog))
	for _, p := range PermissionCatalog {
		names = append(names, p.Name)
	}
	return names
}

// CoreRoleSeeds returns the bootstrap role set.
func CoreRoleSeeds() []CoreRoleSeed {
	return []CoreRoleSeed{
		{Name: "super-admin", Description: "Unrestricted system administrator", Permissions: AllPermissionNames()},
		{Name: "admin", Description: "Institution administrator", Permissions: []string{
			"dashboard.view", "users.view", "users.create", "users.edit",
			PermRolesView, PermRolesCreate, PermRolesEdit, PermRolesDelete, PermPermissionsView,
			"academic_years.manage", "semesters.manage", "schools.manage", "programs.manage",
			"units.manage", "classes.manage", "classrooms.manage", "reports.view", "settings.view",
		}},
		{Name: "faculty-admin", Description: "Faculty timetable administrator", Permissions: []string{
			"dashboard.view", "units.view", "classes.view", "enrollments.manage",
			"class_timetables.manage", "exam_timetables.manage", "exam_rooms.view", "reports.view",
		}},
		{Name: "exam-office", Description: "Examinations office", Permissions: []string{
			"dashboard.view", "exam_timetables.manage", "exam_rooms.manage", "failed_exams.manage", "reports.view",
		}},
		{Name: "lecturer", Description: "Teaching staff", Permissions: []string{
			"dashboard.view", "class_timetables.view", "exam_timetables.view", "profile.view",
		}},
		{Name: "student", Description: "Enrolled student", Permissions: []string{
			"dashboard.view", "class_timetables.view", "exam_timetables.view", "profile.view",
		}},
	}
}
