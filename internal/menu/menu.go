// Package menu builds the navigation tree a role is allowed to see.
package menu

import "cmsadmin/internal/model"

// Permission gates one menu entry
type Permission string

const (
	ViewDashboard  Permission = "dashboard:view"
	ManageCatalog  Permission = "catalog:manage"
	ManageContent  Permission = "content:manage"
	ManageUsers    Permission = "users:manage"
	ManageCareers  Permission = "careers:manage"
	ManageMetadata Permission = "metadata:manage"
)

var grants = map[model.Role][]Permission{
	model.RoleAdmin: {ViewDashboard, ManageCatalog, ManageContent},
	model.RoleSuperAdmin: {
		ViewDashboard, ManageCatalog, ManageContent,
		ManageUsers, ManageCareers, ManageMetadata,
	},
}

// Permissions returns what role may do. Unknown roles get nothing.
func Permissions(role model.Role) []Permission {
	return append([]Permission(nil), grants[role]...)
}

// Can reports whether role holds perm
func Can(role model.Role, perm Permission) bool {
	for _, p := range grants[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// Item is one rendered menu entry. IDs are positional: top level entries
// count from 1, children use parent*10 + position.
type Item struct {
	ID       int    `json:"id"`
	Text     string `json:"text"`
	Icon     string `json:"icon"`
	Href     string `json:"href,omitempty"`
	Children []Item `json:"children,omitempty"`
}

type entry struct {
	text     string
	icon     string
	href     string
	perm     Permission
	children []entry
}

var tree = []entry{
	{text: "Home", icon: "home", href: "/", perm: ViewDashboard},
	{text: "Users", icon: "users", perm: ManageUsers, children: []entry{
		{text: "Access", icon: "users", href: "/users", perm: ManageUsers},
	}},
	{text: "Management", icon: "settings", perm: ManageCatalog, children: []entry{
		{text: "Services", icon: "settings", href: "/services", perm: ManageCatalog},
		{text: "Product", icon: "package", href: "/product", perm: ManageCatalog},
		{text: "Schedule", icon: "bar-chart-3", href: "/schedule", perm: ManageCatalog},
		{text: "Promotion", icon: "megaphone", href: "/promotion", perm: ManageCatalog},
	}},
	{text: "Content", icon: "image", perm: ManageContent, children: []entry{
		{text: "Content Management", icon: "image", href: "/content", perm: ManageContent},
		{text: "Pages", icon: "layers", href: "/pages", perm: ManageContent},
		{text: "Article", icon: "file-text", href: "/article", perm: ManageContent},
	}},
	{text: "Career", icon: "briefcase", href: "/career", perm: ManageCareers},
	{text: "Metadata", icon: "search-check", href: "/metadata", perm: ManageMetadata},
}

// For returns the menu visible to role. A group whose children are all
// filtered out is dropped as well.
func For(role model.Role) []Item {
	out := []Item{}
	for _, e := range tree {
		if !Can(role, e.perm) {
			continue
		}
		id := len(out) + 1
		item := Item{ID: id, Text: e.text, Icon: e.icon, Href: e.href}
		if len(e.children) > 0 {
			for _, c := range e.children {
				if !Can(role, c.perm) {
					continue
				}
				item.Children = append(item.Children, Item{
					ID:   id*10 + len(item.Children) + 1,
					Text: c.text,
					Icon: c.icon,
					Href: c.href,
				})
			}
			if len(item.Children) == 0 {
				continue
			}
		}
		out = append(out, item)
	}
	return out
}

// Allowed reports whether role can reach href through its menu
func Allowed(role model.Role, href string) bool {
	for _, it := range For(role) {
		if it.Href == href {
			return true
		}
		for _, c := range it.Children {
			if c.Href == href {
				return true
			}
		}
	}
	return false
}
