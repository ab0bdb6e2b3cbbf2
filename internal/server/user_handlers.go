package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetUserProfile handles GET /api/user/profile/:userid
// @Summary User profile
// @Description Public profile with follower and following lists.
// @Tags users
// @Produce json
// @Param userid path int true "User ID"
// @Success 200 {object} service.Profile
// @Failure 404 {object} models.ErrorResponse
// @Router /user/profile/{userid} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	userID, err := parseID(c, "userid")
	if err != nil {
		return nil
	}

	profile, err := s.userService.Profile(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// GetUserPosts handles GET /api/user/posts/:userid
// @Summary Posts by user
// @Description Hidden posts are included only for their owner.
// @Tags users
// @Produce json
// @Param userid path int true "User ID"
// @Success 200 {object} object{posts=[]models.Post}
// @Router /user/posts/{userid} [get]
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	ownerID, err := parseID(c, "userid")
	if err != nil {
		return nil
	}

	posts, err := s.postService.UserPosts(c.UserContext(), ownerID, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"posts": posts})
}

// ToggleFollow handles GET /api/user/follow/:followid
// @Summary Follow or unfollow
// @Tags users
// @Produce json
// @Param followid path int true "User to follow"
// @Success 200 {object} service.FollowResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /user/follow/{followid} [get]
func (s *Server) ToggleFollow(c *fiber.Ctx) error {
	followID, err := parseID(c, "followid")
	if err != nil {
		return nil
	}

	res, err := s.userService.ToggleFollow(c.UserContext(), currentUserID(c), followID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// SearchUsers handles GET /api/user/search?name=
// @Summary Search users
// @Tags users
// @Produce json
// @Param name query string true "Name or username"
// @Success 200 {object} object{users=[]models.PublicUser}
// @Failure 400 {object} models.ErrorResponse
// @Router /user/search [get]
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	users, err := s.userService.Search(c.UserContext(), c.Query("name"), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"users": users})
}
