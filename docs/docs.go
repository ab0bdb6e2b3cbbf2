// Package docs registers the FaceGram API swagger document with swag.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "cookieAuth": {"type": "apiKey", "in": "header", "name": "Cookie"},
        "bearerAuth": {"type": "apiKey", "in": "header", "name": "Authorization"}
    },
    "paths": {
        "/register": {"post": {"tags": ["auth"], "summary": "Register", "consumes": ["multipart/form-data"], "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}}},
        "/verify": {"post": {"tags": ["auth"], "summary": "Verify email", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}}},
        "/login": {"post": {"tags": ["auth"], "summary": "Login", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}}},
        "/logout": {"get": {"tags": ["auth"], "summary": "Logout", "responses": {"200": {"description": "OK"}}}},
        "/auth/google": {"get": {"tags": ["auth"], "summary": "Google sign-in", "responses": {"302": {"description": "Found"}, "501": {"description": "Not Implemented", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}}},
        "/me": {"get": {"tags": ["auth"], "summary": "Current user", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}}},
        "/posts": {"get": {"tags": ["posts"], "summary": "Feed page", "parameters": [{"type": "integer", "name": "page", "in": "query"}, {"type": "integer", "name": "limit", "in": "query"}], "responses": {"200": {"description": "OK"}}}},
        "/posts/search": {"get": {"tags": ["posts"], "summary": "Search posts", "parameters": [{"type": "string", "name": "q", "in": "query", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}}},
        "/create": {"post": {"tags": ["posts"], "summary": "Create post", "consumes": ["multipart/form-data"], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}}},
        "/post/{postid}": {"get": {"tags": ["posts"], "summary": "Post detail", "parameters": [{"type": "integer", "name": "postid", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}}},
        "/post/delete/{postid}": {"delete": {"tags": ["posts"], "summary": "Delete post", "parameters": [{"type": "integer", "name": "postid", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}}},
        "/post/hide/{postid}": {"get": {"tags": ["posts"], "summary": "Toggle post visibility", "parameters": [{"type": "integer", "name": "postid", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}}},
        "/post/comment": {"post": {"tags": ["posts"], "summary": "Comment on a post", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}}},
        "/post/like": {"post": {"tags": ["posts"], "summary": "Toggle like", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}}},
        "/user/profile/{userid}": {"get": {"tags": ["users"], "summary": "User profile", "parameters": [{"type": "integer", "name": "userid", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}}},
        "/user/posts/{userid}": {"get": {"tags": ["users"], "summary": "Posts by user", "parameters": [{"type": "integer", "name": "userid", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/user/follow/{followid}": {"get": {"tags": ["users"], "summary": "Follow or unfollow", "parameters": [{"type": "integer", "name": "followid", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}}},
        "/user/search": {"get": {"tags": ["users"], "summary": "Search users", "parameters": [{"type": "string", "name": "name", "in": "query", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/create/chat": {"post": {"tags": ["chats"], "summary": "Create or get a one-to-one chat", "responses": {"200": {"description": "Existing chat"}, "201": {"description": "Created"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}}},
        "/send/message": {"post": {"tags": ["chats"], "summary": "Send a chat message", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}}},
        "/get/chatlist": {"get": {"tags": ["chats"], "summary": "List chats", "responses": {"200": {"description": "OK"}}}},
        "/chat/{chatid}/messages": {"get": {"tags": ["chats"], "summary": "Chat history", "parameters": [{"type": "integer", "name": "chatid", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}}}
    },
    "definitions": {
        "models.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "message": {"type": "string"},
                "code": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "FaceGram API",
	Description:      "Social feed, follows and one-to-one chat with a realtime relay at /ws.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
