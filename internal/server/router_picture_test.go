package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
)

func pictureRequest(testContext *testing.T, token string, filename string, contentType string, content []byte) *http.Request {
	testContext.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		testContext.Fatalf("failed to create multipart part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		testContext.Fatalf("failed to write multipart content: %v", err)
	}
	if err := writer.Close(); err != nil {
		testContext.Fatalf("failed to close multipart writer: %v", err)
	}

	request := httptest.NewRequest(http.MethodPost, "/api/upload-profile-picture", body)
	request.Header.Set("Content-Type", writer.FormDataContentType())
	request.Header.Set("Authorization", "Bearer "+token)
	return request
}

func TestPictureUploadStoresImage(testContext *testing.T) {
	stack := newTestStack(testContext)
	_, token := stack.signUp(testContext, "avery@example.com", "Avery Quinn")

	recorder := httptest.NewRecorder()
	stack.handler.ServeHTTP(recorder, pictureRequest(testContext, token, "me.png", "image/png", []byte("fake image bytes")))
	if recorder.Code != http.StatusOK {
		testContext.Fatalf("expected ok, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var payload struct {
		Success  bool   `json:"success"`
		ImageURL string `json:"imageUrl"`
		Message  string `json:"message"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		testContext.Fatalf("failed to decode payload: %v", err)
	}
	if !payload.Success || payload.Message != "Profile picture updated successfully" {
		testContext.Fatalf("unexpected payload: %s", recorder.Body.String())
	}
	if !strings.Contains(payload.ImageURL, "profile-pictures/") {
		testContext.Fatalf("unexpected image url: %q", payload.ImageURL)
	}
	if stack.store.Len() != 1 {
		testContext.Fatalf("expected one stored asset, got %d", stack.store.Len())
	}
}

func TestPictureUploadRejectsNonImage(testContext *testing.T) {
	stack := newTestStack(testContext)
	_, token := stack.signUp(testContext, "avery@example.com", "Avery Quinn")

	recorder := httptest.NewRecorder()
	stack.handler.ServeHTTP(recorder, pictureRequest(testContext, token, "notes.pdf", "application/pdf", []byte("not an image")))
	if recorder.Code != http.StatusBadRequest {
		testContext.Fatalf("expected bad request, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "File must be an image") {
		testContext.Fatalf("unexpected body: %s", recorder.Body.String())
	}
}

func TestPictureUploadRequiresFile(testContext *testing.T) {
	stack := newTestStack(testContext)
	_, token := stack.signUp(testContext, "avery@example.com", "Avery Quinn")

	recorder := stack.authedRequest(http.MethodPost, "/api/upload-profile-picture", strings.NewReader(""), token)
	if recorder.Code != http.StatusBadRequest {
		testContext.Fatalf("expected bad request, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "No file provided") {
		testContext.Fatalf("unexpected body: %s", recorder.Body.String())
	}
}

func TestPictureDeleteWithoutUpload(testContext *testing.T) {
	stack := newTestStack(testContext)
	_, token := stack.signUp(testContext, "avery@example.com", "Avery Quinn")

	recorder := stack.authedRequest(http.MethodDelete, "/api/upload-profile-picture", nil, token)
	if recorder.Code != http.StatusBadRequest {
		testContext.Fatalf("expected bad request, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "No profile picture to delete") {
		testContext.Fatalf("unexpected body: %s", recorder.Body.String())
	}
}

func TestPictureDeleteRemovesStoredAsset(testContext *testing.T) {
	stack := newTestStack(testContext)
	_, token := stack.signUp(testContext, "avery@example.com", "Avery Quinn")

	recorder := httptest.NewRecorder()
	stack.handler.ServeHTTP(recorder, pictureRequest(testContext, token, "me.png", "image/png", []byte("fake image bytes")))
	if recorder.Code != http.StatusOK {
		testContext.Fatalf("upload failed: %d %s", recorder.Code, recorder.Body.String())
	}

	recorder2 := stack.authedRequest(http.MethodDelete, "/api/upload-profile-picture", nil, token)
	if recorder2.Code != http.StatusOK {
		testContext.Fatalf("expected ok, got %d: %s", recorder2.Code, recorder2.Body.String())
	}
	if stack.store.Len() != 0 {
		testContext.Fatalf("expected the asset to be deleted, got %d stored", stack.store.Len())
	}
}
