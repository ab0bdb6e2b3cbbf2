package seed

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"facegram/internal/models"
	"facegram/internal/observability"
	"facegram/internal/validation"

	"gopkg.in/yaml.v3"
)

// Fixtures is a hand-written dataset loaded from YAML. Users are referenced
// by username everywhere else in the file.
type Fixtures struct {
	Users   []FixtureUser   `yaml:"users" validate:"dive"`
	Follows []FixtureFollow `yaml:"follows" validate:"dive"`
	Posts   []FixturePost   `yaml:"posts" validate:"dive"`
	Chats   []FixtureChat   `yaml:"chats" validate:"dive"`
}

// FixtureUser is an account; an empty password means DefaultPassword.
type FixtureUser struct {
	Name       string `yaml:"name" validate:"required"`
	Username   string `yaml:"username" validate:"required,username"`
	Email      string `yaml:"email" validate:"required,facegram_email"`
	Password   string `yaml:"password"`
	Bio        string `yaml:"bio"`
	ProfilePic string `yaml:"profilepic"`
}

type FixtureFollow struct {
	Follower string `yaml:"follower" validate:"required"`
	Follows  string `yaml:"follows" validate:"required"`
}

type FixturePost struct {
	Author   string           `yaml:"author" validate:"required"`
	Title    string           `yaml:"title" validate:"required"`
	Images   []string         `yaml:"images"`
	Hidden   bool             `yaml:"hidden"`
	Likes    []string         `yaml:"likes"`
	Comments []FixtureComment `yaml:"comments" validate:"dive"`
	Posted   time.Time        `yaml:"posted"`
}

type FixtureComment struct {
	User string `yaml:"user" validate:"required"`
	Text string `yaml:"text" validate:"required"`
}

type FixtureChat struct {
	Between  [2]string        `yaml:"between" validate:"dive,required"`
	Messages []FixtureMessage `yaml:"messages" validate:"dive"`
}

type FixtureMessage struct {
	From string `yaml:"from" validate:"required"`
	Text string `yaml:"text" validate:"required"`
}

// LoadFixtures reads and validates a fixtures file.
func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return ParseFixtures(data)
}

// ParseFixtures decodes YAML fixtures, rejecting unknown keys.
func ParseFixtures(data []byte) (*Fixtures, error) {
	var fx Fixtures
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	if err := validation.New().Struct(&fx); err != nil {
		return nil, fmt.Errorf("invalid fixtures: %w", err)
	}
	return &fx, nil
}

// ApplyFixtures inserts fx and returns what it created. Every username a
// follow, post, like, comment or chat refers to must be defined in Users.
func (s *Seeder) ApplyFixtures(ctx context.Context, fx *Fixtures) (Summary, error) {
	var sum Summary
	users := make(map[string]*models.User, len(fx.Users))
	lookup := func(username string) (*models.User, error) {
		u, ok := users[username]
		if !ok {
			return nil, fmt.Errorf("fixtures reference unknown user %q", username)
		}
		return u, nil
	}

	for _, fu := range fx.Users {
		u, err := s.factory.CreateUser(func(u *models.User) {
			u.Name = fu.Name
			u.Username = fu.Username
			u.Email = fu.Email
			u.Password = fu.Password
			if fu.Bio != "" {
				u.Bio = fu.Bio
			}
			if fu.ProfilePic != "" {
				u.ProfilePic = fu.ProfilePic
			}
		})
		if err != nil {
			return sum, err
		}
		users[u.Username] = u
		sum.Users++
	}

	for _, ff := range fx.Follows {
		follower, err := lookup(ff.Follower)
		if err != nil {
			return sum, err
		}
		followed, err := lookup(ff.Follows)
		if err != nil {
			return sum, err
		}
		if err := s.factory.Follow(follower, followed); err != nil {
			return sum, err
		}
		sum.Follows++
	}

	for _, fp := range fx.Posts {
		author, err := lookup(fp.Author)
		if err != nil {
			return sum, err
		}
		post := s.factory.BuildPost(author, func(p *models.Post) {
			p.Title = fp.Title
			p.Images = fp.Images
			if p.Images == nil {
				p.Images = []string{}
			}
			p.ShowPost = !fp.Hidden
			if !fp.Posted.IsZero() {
				p.PostedTime = fp.Posted
			}
		})
		if err := s.factory.CreatePostsBatch([]*models.Post{post}); err != nil {
			return sum, err
		}
		sum.Posts++

		for _, name := range fp.Likes {
			liker, err := lookup(name)
			if err != nil {
				return sum, err
			}
			if err := s.factory.CreateLike(liker, post); err != nil {
				return sum, err
			}
			sum.Likes++
		}
		for _, fc := range fp.Comments {
			commenter, err := lookup(fc.User)
			if err != nil {
				return sum, err
			}
			if _, err := s.factory.CreateComment(commenter, post, func(c *models.Comment) { c.Comment = fc.Text }); err != nil {
				return sum, err
			}
			sum.Comments++
		}
	}

	for _, fch := range fx.Chats {
		a, err := lookup(fch.Between[0])
		if err != nil {
			return sum, err
		}
		b, err := lookup(fch.Between[1])
		if err != nil {
			return sum, err
		}
		chat, err := s.factory.CreateChat(a, b)
		if err != nil {
			return sum, err
		}
		sum.Chats++

		start := time.Now().Add(-time.Duration(len(fch.Messages)) * time.Minute)
		for i, fm := range fch.Messages {
			sender, err := lookup(fm.From)
			if err != nil {
				return sum, err
			}
			text, at := fm.Text, start.Add(time.Duration(i)*time.Minute)
			if _, err := s.factory.CreateMessage(chat, sender, func(m *models.ChatMessage) {
				m.Content = text
				m.CreatedAt = at
			}); err != nil {
				return sum, err
			}
			sum.Messages++
		}
	}

	observability.GlobalLogger.InfoContext(ctx, "applied fixtures", slog.String("summary", sum.String()))
	return sum, nil
}
