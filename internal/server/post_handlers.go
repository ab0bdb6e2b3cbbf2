package server

import (
	"facegram/internal/models"
	"facegram/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /api/posts?page&limit
// @Summary Feed page
// @Description Offset-paginated feed of visible posts, newest first.
// @Tags posts
// @Produce json
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size (default 10, max 50)"
// @Success 200 {object} service.PostPage
// @Failure 401 {object} models.ErrorResponse
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page, err := s.postService.ListPosts(c.UserContext(), currentUserID(c), c.QueryInt("page"), c.QueryInt("limit"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// CreatePost handles POST /api/create
// @Summary Create post
// @Tags posts
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param images formData file false "Up to 5 images"
// @Success 200 {object} object{message=string,post=models.Post}
// @Failure 400 {object} models.ErrorResponse
// @Router /create [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var files []service.UploadFile
	if form, err := c.MultipartForm(); err == nil {
		headers := form.File["images"]
		if len(headers) > service.MaxImagesPerPost {
			return respondError(c, models.NewValidationError("Too many images"))
		}
		for _, fh := range headers {
			f, err := s.readUpload(fh)
			if err != nil {
				return respondError(c, err)
			}
			files = append(files, f)
		}
	}

	title := c.FormValue("title")
	if title == "" {
		var req struct {
			Title string `json:"title"`
		}
		if c.Is("json") {
			if err := parseBody(c, &req); err != nil {
				return nil
			}
		}
		title = req.Title
	}

	images, err := s.uploadService.SaveImages(ctx, files)
	if err != nil {
		return respondError(c, err)
	}

	post, err := s.postService.CreatePost(ctx, service.CreatePostInput{
		UserID: currentUserID(c),
		Title:  title,
		Images: images,
	})
	if err != nil {
		s.uploadService.Remove(ctx, images...)
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Post created successfully",
		"post":    post,
	})
}

// GetPost handles GET /api/post/:postid
// @Summary Post detail
// @Tags posts
// @Produce json
// @Param postid path int true "Post ID"
// @Success 200 {object} object{message=string,post=service.PostDetail}
// @Failure 404 {object} models.ErrorResponse
// @Router /post/{postid} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	postID, err := parseID(c, "postid")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.UserContext(), postID, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "success", "post": post})
}

// DeletePost handles DELETE /api/post/delete/:postid
// @Summary Delete post
// @Tags posts
// @Produce json
// @Param postid path int true "Post ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /post/delete/{postid} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := parseID(c, "postid")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.UserContext(), currentUserID(c), postID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted successfully"})
}

// HidePost handles GET /api/post/hide/:postid
// @Summary Toggle post visibility
// @Tags posts
// @Produce json
// @Param postid path int true "Post ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Router /post/hide/{postid} [get]
func (s *Server) HidePost(c *fiber.Ctx) error {
	postID, err := parseID(c, "postid")
	if err != nil {
		return nil
	}

	msg, err := s.postService.HidePost(c.UserContext(), currentUserID(c), postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": msg})
}

// CommentPost handles POST /api/post/comment
// @Summary Comment on a post
// @Tags posts
// @Accept json
// @Produce json
// @Param request body object{comment=string,postid=int} true "Comment"
// @Success 201 {object} object{message=string,comment=models.Comment}
// @Failure 400 {object} models.ErrorResponse
// @Router /post/comment [post]
func (s *Server) CommentPost(c *fiber.Ctx) error {
	var req struct {
		Comment string `json:"comment"`
		PostID  flexID `json:"postid"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.postService.AddComment(c.UserContext(), currentUserID(c), uint(req.PostID), req.Comment)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Comment added successfully",
		"comment": comment,
	})
}

// LikePost handles POST /api/post/like
// @Summary Toggle like
// @Description Likes the post, or removes the like when the user already likes it.
// @Tags posts
// @Accept json
// @Produce json
// @Param request body object{postid=int} true "Post"
// @Success 200 {object} object{message=string,liked=bool,likesCount=int}
// @Failure 404 {object} models.ErrorResponse
// @Router /post/like [post]
func (s *Server) LikePost(c *fiber.Ctx) error {
	var req struct {
		PostID flexID `json:"postid"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	res, err := s.postService.ToggleLike(c.UserContext(), currentUserID(c), uint(req.PostID))
	if err != nil {
		return respondError(c, err)
	}

	msg := "Post unliked"
	if res.Liked {
		msg = "Post liked"
	}
	return c.JSON(fiber.Map{
		"message":    msg,
		"liked":      res.Liked,
		"likesCount": res.LikesCount,
	})
}

// SearchPosts handles GET /api/posts/search?q=
// @Summary Search posts
// @Tags posts
// @Produce json
// @Param q query string true "Title query"
// @Success 200 {array} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /posts/search [get]
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	posts, err := s.postService.SearchPosts(c.UserContext(), currentUserID(c), c.Query("q"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}
