package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/studiops/bankrecon/internal/apperr"
	"github.com/studiops/bankrecon/internal/ingest"
	"github.com/studiops/bankrecon/internal/model"
	"github.com/studiops/bankrecon/internal/store"
)

type importRequest struct {
	FileContent string `json:"fileContent"`
	FileName    string `json:"fileName"`
	FileType    string `json:"fileType"`
}

func (s *Server) createImport(c *gin.Context) {
	req, err := s.readImport(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	req.Actor = c.GetString(actorKey)

	res, err := s.ingest.Ingest(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "importId": res.ImportID, "summary": res.Summary})
}

// readImport accepts a multipart upload (field "file") or a JSON body.
func (s *Server) readImport(c *gin.Context) (ingest.Request, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			return ingest.Request{}, apperr.Invalid("file is required").WithDetails(err.Error())
		}
		f, err := fh.Open()
		if err != nil {
			return ingest.Request{}, apperr.Internal(err, "opening upload")
		}
		defer f.Close()

		var r io.Reader = f
		if s.maxBytes > 0 {
			r = io.LimitReader(f, s.maxBytes+1)
		}
		content, err := io.ReadAll(r)
		if err != nil {
			return ingest.Request{}, apperr.Internal(err, "reading upload")
		}
		return ingest.Request{Content: content, FileName: fh.Filename, FileType: c.PostForm("fileType")}, nil
	}

	var body importRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		return ingest.Request{}, apperr.Invalid("invalid request body").WithDetails(err.Error())
	}
	if body.FileContent == "" {
		return ingest.Request{}, apperr.Invalid("fileContent is required")
	}
	ft, ok := ingest.ResolveFileType(body.FileType, body.FileName)
	if !ok {
		return ingest.Request{}, apperr.Invalid("unsupported file type").
			WithDetails(fmt.Sprintf("%q is not one of ofx, csv, xlsx, xls", body.FileType))
	}
	content, err := ingest.DecodeContent(body.FileContent, ft)
	if err != nil {
		return ingest.Request{}, apperr.Invalid("invalid file content").WithDetails(err.Error())
	}
	return ingest.Request{Content: content, FileName: body.FileName, FileType: string(ft)}, nil
}

func (s *Server) listImports(c *gin.Context) {
	limit, err := queryLimit(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	imports, err := s.reader.ListImports(c.Request.Context(), limit)
	if err != nil {
		s.fail(c, apperr.Internal(err, "listing imports"))
		return
	}
	if imports == nil {
		imports = []model.Import{}
	}
	c.JSON(http.StatusOK, gin.H{"imports": imports})
}

func (s *Server) getImport(c *gin.Context) {
	id := c.Param("id")
	imp, err := s.reader.GetImport(c.Request.Context(), id)
	if err != nil {
		s.fail(c, notFound(err, "import", id))
		return
	}
	c.JSON(http.StatusOK, imp)
}

func (s *Server) listTransactions(c *gin.Context) {
	f := store.TransactionFilter{ImportID: c.Query("import_id")}
	if st := c.Query("status"); st != "" {
		switch status := model.MatchStatus(st); status {
		case model.MatchUnmatched, model.MatchAutoMatched, model.MatchManualMatched, model.MatchIgnored:
			f.Status = status
		default:
			s.fail(c, apperr.Invalid("invalid status %q", st))
			return
		}
	}
	limit, err := queryLimit(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	f.Limit = limit

	txs, err := s.reader.ListTransactions(c.Request.Context(), f)
	if err != nil {
		s.fail(c, apperr.Internal(err, "listing transactions"))
		return
	}
	if txs == nil {
		txs = []model.BankTransaction{}
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}

func (s *Server) getTransaction(c *gin.Context) {
	id := c.Param("id")
	tx, err := s.reader.GetTransaction(c.Request.Context(), id)
	if err != nil {
		s.fail(c, notFound(err, "transaction", id))
		return
	}
	c.JSON(http.StatusOK, tx)
}

func queryLimit(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperr.Invalid("invalid limit %q", raw)
	}
	return n, nil
}

func notFound(err error, what, key string) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.NotFound("%s %s not found", what, key)
	}
	return apperr.Internal(err, "loading %s %s", what, key)
}
