package response

import (
	"encoding/json"
	"net/http"
)

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// Page wraps a list with page metadata.
type Page struct {
	Content          any   `json:"content"`
	TotalElements    int64 `json:"totalElements"`
	NumberOfElements int   `json:"numberOfElements"`
	Number           int   `json:"number"`
	Size             int   `json:"size"`
	Last             bool  `json:"last"`
}

// WritePage writes one page of a listing. count is the number of items on this
// page, total the size of the whole result set.
func WritePage(w http.ResponseWriter, status int, content any, count int, number, size int, total int64) {
	WriteJSON(w, status, Page{
		Content:          content,
		TotalElements:    total,
		NumberOfElements: count,
		Number:           number,
		Size:             size,
		Last:             int64(number+1)*int64(size) >= total,
	})
}
