package assets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog"

	"github.com/stockistmap/stockistmap/pkg/errors"
	"github.com/stockistmap/stockistmap/pkg/locations"
	"github.com/stockistmap/stockistmap/pkg/logging"
)

// Store is the catalog snapshot collaborator: one read at the start of a
// pass, one write at the end. Transport failures are returned (fatal to
// the pass); unparseable content degrades to an empty catalog.
type Store interface {
	Read(ctx context.Context) (locations.Catalog, error)
	Write(ctx context.Context, catalog locations.Catalog) error
}

// ThemeStore reads and writes the published document as a storefront theme
// asset on the commerce platform.
type ThemeStore struct {
	client  *resty.Client
	themeID string
	logger  *zerolog.Logger
}

// ThemeOption configures a ThemeStore.
type ThemeOption func(*ThemeStore)

// WithThemeHTTPClient overrides the HTTP client, used by tests.
func WithThemeHTTPClient(client *resty.Client) ThemeOption {
	return func(s *ThemeStore) {
		s.client = client
	}
}

// WithThemeLogger overrides the store's logger.
func WithThemeLogger(logger *zerolog.Logger) ThemeOption {
	return func(s *ThemeStore) {
		s.logger = logger
	}
}

// NewThemeStore creates a ThemeStore for the given shop.
func NewThemeStore(shop, apiKey, password string, opts ...ThemeOption) *ThemeStore {
	s := &ThemeStore{
		client: resty.New().
			SetBaseURL(fmt.Sprintf("https://%s.myshopify.com/admin/api/2024-01", shop)).
			SetBasicAuth(apiKey, password).
			SetTimeout(30 * time.Second),
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type themesResponse struct {
	Themes []struct {
		ID   int64  `json:"id"`
		Role string `json:"role"`
	} `json:"themes"`
}

type assetResponse struct {
	Asset struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	} `json:"asset"`
}

type assetUpdateRequest struct {
	Asset struct {
		Key         string `json:"key"`
		Value       string `json:"value"`
		ContentType string `json:"content_type"`
	} `json:"asset"`
}

// mainThemeID resolves and caches the id of the shop's live theme.
func (s *ThemeStore) mainThemeID(ctx context.Context) (string, error) {
	if s.themeID != "" {
		return s.themeID, nil
	}

	var payload themesResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&payload).
		Get("/themes.json")
	if err != nil {
		return "", errors.WrapAPI("assets", 0, err)
	}
	if resp.IsError() {
		return "", errors.NewAPIError("assets", resp.StatusCode(), "listing themes: "+resp.Status())
	}

	for _, theme := range payload.Themes {
		if theme.Role == "main" {
			s.themeID = fmt.Sprintf("%d", theme.ID)
			return s.themeID, nil
		}
	}
	return "", errors.NewNotFoundError("main theme", "role=main")
}

// Read fetches the published document and parses it defensively.
func (s *ThemeStore) Read(ctx context.Context) (locations.Catalog, error) {
	themeID, err := s.mainThemeID(ctx)
	if err != nil {
		return locations.Catalog{}, err
	}

	var payload assetResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("asset[key]", AssetKey).
		SetResult(&payload).
		Get(fmt.Sprintf("/themes/%s/assets.json", themeID))
	if err != nil {
		return locations.Catalog{}, errors.WrapAPI("assets", 0, err)
	}
	if resp.StatusCode() == 404 {
		// First run: the asset does not exist yet.
		s.logger.Warn().Msg("Locations asset not found, starting with empty data")
		return locations.Catalog{}, nil
	}
	if resp.IsError() {
		return locations.Catalog{}, errors.NewAPIError("assets", resp.StatusCode(),
			"fetching locations asset: "+resp.Status())
	}

	catalog := ParseDocument(payload.Asset.Value)
	if catalog.Empty() && payload.Asset.Value != "" {
		s.logger.Warn().Msg("Couldn't parse existing locations data, starting with empty data")
	}
	return catalog, nil
}

// Write serializes the catalog and uploads it as the published asset.
func (s *ThemeStore) Write(ctx context.Context, catalog locations.Catalog) error {
	themeID, err := s.mainThemeID(ctx)
	if err != nil {
		return err
	}

	content, err := SerializeDocument(catalog)
	if err != nil {
		return err
	}

	var req assetUpdateRequest
	req.Asset.Key = AssetKey
	req.Asset.Value = content
	req.Asset.ContentType = "application/javascript"

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		Put(fmt.Sprintf("/themes/%s/assets.json", themeID))
	if err != nil {
		return errors.WrapAPI("assets", 0, err)
	}
	if resp.IsError() {
		return errors.NewAPIError("assets", resp.StatusCode(),
			"updating locations asset: "+resp.Status())
	}

	s.logger.Info().Int("bytes", len(content)).Msg("Published locations asset")
	return nil
}

// FileStore keeps the snapshot in a local file, for offline runs and dry
// runs. A .yaml/.yml path stores readable YAML; any other extension stores
// the same document format the theme asset uses.
type FileStore struct {
	path   string
	logger *zerolog.Logger
}

// NewFileStore creates a FileStore at the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, logger: logging.Default()}
}

func (s *FileStore) yamlFormat() bool {
	ext := strings.ToLower(filepath.Ext(s.path))
	return ext == ".yaml" || ext == ".yml"
}

// Read loads the snapshot. A missing file is an empty catalog.
func (s *FileStore) Read(_ context.Context) (locations.Catalog, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return locations.Catalog{}, nil
		}
		return locations.Catalog{}, errors.WrapIO("read", s.path, err)
	}

	if s.yamlFormat() {
		var catalog locations.Catalog
		if err := yaml.Unmarshal(data, &catalog); err != nil {
			s.logger.Warn().Err(err).Str("path", s.path).
				Msg("Couldn't parse snapshot file, starting with empty data")
			return locations.Catalog{}, nil
		}
		return catalog, nil
	}

	return ParseDocument(string(data)), nil
}

// Write stores the snapshot.
func (s *FileStore) Write(_ context.Context, catalog locations.Catalog) error {
	var data []byte
	if s.yamlFormat() {
		out, err := yaml.Marshal(catalog)
		if err != nil {
			return errors.WrapParse("yaml", s.path, err)
		}
		data = out
	} else {
		content, err := SerializeDocument(catalog)
		if err != nil {
			return err
		}
		data = []byte(content)
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return errors.WrapIO("write", s.path, err)
	}
	return nil
}
