package service

import "blog-api/internal/domain"

// CanEditBlog decides whether caller may change a blog's title or content.
// Admins always may; everyone else only when the blog is assigned to them.
func CanEditBlog(caller *domain.User, blog *domain.Blog) error {
	if caller.IsAdmin() {
		return nil
	}
	if !blog.IsAssigned() {
		return domain.Forbidden("Blog has not been assigned to an editor yet")
	}
	if !blog.IsAssignedTo(caller.ID) {
		return domain.Forbidden("Access Denied - You can only edit blogs which are assigned to you")
	}
	return nil
}

// CanDeleteComment allows only the comment's author, whatever their role.
func CanDeleteComment(callerID string, comment *domain.Comment) error {
	if comment.AuthorID != callerID {
		return domain.Forbidden("Access Denied - You can only delete your own comments")
	}
	return nil
}

func CanAssignEditor(caller, target *domain.User) error {
	if !caller.IsAdmin() {
		return domain.Forbidden("Access Denied")
	}
	if target.Role != domain.RoleEditor {
		return domain.InvalidInput("Assigned User is not an Editor")
	}
	return nil
}
