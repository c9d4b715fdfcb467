package notesdk

import (
	"context"
	"strings"

	"github.com/imroc/req/v3"
)

const (
	v1Notebooks = "/api/v1/notebooks"
)

type NotebookAPI struct {
	client *req.Client
}

func newNotebookAPI(client *req.Client) *NotebookAPI {
	return &NotebookAPI{
		client: client,
	}
}

// List returns every notebook of the account
func (n *NotebookAPI) List(ctx context.Context) ([]*Notebook, error) {
	var result NotebookListResponse
	var apiErr APIError

	res, err := withReadRetry(n.client.R()).
		SetContext(ctx).
		SetSuccessResult(&result).
		SetErrorResult(&apiErr).
		Get(v1Notebooks)

	if err := handleAPIError(res, err, "notebook list"); err != nil {
		return nil, err
	}

	return result.Notebooks, nil
}

// Create creates a notebook
func (n *NotebookAPI) Create(ctx context.Context, params *CreateNotebookParams) (*Notebook, error) {
	var result Notebook
	var apiErr APIError

	if strings.TrimSpace(params.Name) == "" {
		return nil, NewAPIError(CodeInvalidRequest, "notebook name missing")
	}

	res, err := n.client.R().
		SetContext(ctx).
		SetBody(params).
		SetSuccessResult(&result).
		SetErrorResult(&apiErr).
		Post(v1Notebooks)

	if err := handleAPIError(res, err, "notebook create"); err != nil {
		return nil, err
	}

	return &result, nil
}
