package app

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"slices"
	"strings"

	"github.com/bantoinese83/boneyard/internal/domino"
	"github.com/bantoinese83/boneyard/internal/domino/service"
	"github.com/bantoinese83/boneyard/internal/images"
	"github.com/bantoinese83/boneyard/internal/storage"
)

// maxRequestBodyBytes bounds the JSON body of mutation requests.
const maxRequestBodyBytes = 64 * 1024

type createSetRequest struct {
	Type string `json:"type"`
	Sets int    `json:"sets"`
}

type createSetResponse struct {
	SetID          string `json:"set_id"`
	Type           string `json:"type"`
	TilesRemaining int    `json:"tiles_remaining"`
}

type drawRequest struct {
	Count int `json:"count"`
}

type drawResponse struct {
	SetID          string             `json:"set_id"`
	TilesDrawn     []service.TileInfo `json:"tiles_drawn"`
	TilesRemaining int                `json:"tiles_remaining"`
}

type shuffleResponse struct {
	SetID          string `json:"set_id"`
	TilesRemaining int    `json:"tiles_remaining"`
	Message        string `json:"message"`
}

type createPileRequest struct {
	Name string `json:"name"`
}

type createPileResponse struct {
	SetID    string   `json:"set_id"`
	PileName string   `json:"pile_name"`
	Tiles    []string `json:"tiles"`
}

type pileSummary struct {
	SetID     string `json:"set_id"`
	PileName  string `json:"pile_name"`
	TileCount int    `json:"tile_count"`
}

type pileListResponse struct {
	SetID     string             `json:"set_id"`
	PileName  string             `json:"pile_name"`
	PileTiles []service.TileInfo `json:"pile_tiles"`
}

type pileDrawResponse struct {
	SetID              string           `json:"set_id"`
	PileName           string           `json:"pile_name"`
	TileDrawn          service.TileInfo `json:"tile_drawn"`
	RemainingPileCount int              `json:"remaining_pile_count"`
}

type tileListRequest struct {
	Tiles []string `json:"tiles"`
}

type returnResponse struct {
	SetID          string `json:"set_id"`
	TilesRemaining int    `json:"tiles_remaining"`
}

type tileCatalogEntry struct {
	ID            string `json:"id"`
	FrontImageURL string `json:"front_image_url"`
	BackImageURL  string `json:"back_image_url"`
}

type errorEnvelope struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// NewHandler builds the full route table around the set engine.
func NewHandler(engine *service.Service, resolver images.Resolver, corsOrigins []string) http.Handler {
	h := &handler{engine: engine, resolver: resolver}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	mux.HandleFunc("GET /api/set", h.listSets)
	mux.HandleFunc("POST /api/set/new", h.createSet)
	mux.HandleFunc("GET /api/set/{set_id}", h.getSet)
	mux.HandleFunc("DELETE /api/set/{set_id}", h.deleteSet)
	mux.HandleFunc("POST /api/set/{set_id}/shuffle", h.shuffle)
	mux.HandleFunc("POST /api/set/{set_id}/draw", h.draw)

	mux.HandleFunc("POST /api/set/{set_id}/pile/new", h.createPile)
	mux.HandleFunc("GET /api/set/{set_id}/pile", h.listPiles)
	mux.HandleFunc("GET /api/set/{set_id}/pile/{pile_name}", h.getPile)
	mux.HandleFunc("DELETE /api/set/{set_id}/pile/{pile_name}", h.deletePile)
	mux.HandleFunc("GET /api/set/{set_id}/pile/{pile_name}/list", h.getPile)
	mux.HandleFunc("POST /api/set/{set_id}/pile/{pile_name}/add", h.addToPile)
	mux.HandleFunc("POST /api/set/{set_id}/pile/{pile_name}/draw", h.drawFromPile)
	mux.HandleFunc("POST /api/set/{set_id}/pile/{pile_name}/return", h.returnToBoneyard)

	mux.HandleFunc("GET /api/images/tile/{tile_id}", h.tileImage)
	mux.HandleFunc("GET /api/images/tiles", h.tileCatalog)

	mux.Handle("GET /ws/set/{set_id}", h.websocketHandler())

	return corsMiddleware(mux, corsOrigins)
}

type handler struct {
	engine   *service.Service
	resolver images.Resolver
}

func (h *handler) listSets(w http.ResponseWriter, r *http.Request) {
	ids, err := h.engine.ListSets(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	summaries := make([]service.Summary, 0, len(ids))
	for _, setID := range ids {
		summary, err := h.engine.GetSetSummary(r.Context(), setID)
		if errors.Is(err, domino.ErrSetNotFound) {
			// Expired between List and Get.
			continue
		}
		if err != nil {
			writeError(w, err)
			return
		}
		summaries = append(summaries, summary)
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *handler) createSet(w http.ResponseWriter, r *http.Request) {
	var req createSetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Sets == 0 {
		req.Sets = 1
	}
	summary, err := h.engine.CreateSet(r.Context(), domino.SetType(req.Type), req.Sets)
	if err != nil {
		writeError(w, err)
		return
	}
	log.Printf("set created set_id=%s type=%s sets=%d", summary.SetID, summary.SetType, summary.Multiplicity)
	w.Header().Set("Location", "/api/set/"+summary.SetID)
	writeJSON(w, http.StatusCreated, createSetResponse{
		SetID:          summary.SetID,
		Type:           summary.SetType,
		TilesRemaining: summary.TilesRemaining,
	})
}

func (h *handler) getSet(w http.ResponseWriter, r *http.Request) {
	summary, err := h.engine.GetSetSummary(r.Context(), r.PathValue("set_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *handler) deleteSet(w http.ResponseWriter, r *http.Request) {
	setID := r.PathValue("set_id")
	if err := h.engine.DeleteSet(r.Context(), setID); err != nil {
		writeError(w, err)
		return
	}
	log.Printf("set deleted set_id=%s", setID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) shuffle(w http.ResponseWriter, r *http.Request) {
	setID := r.PathValue("set_id")
	onlyRemaining := queryBool(r, "remaining")
	summary, err := h.engine.Shuffle(r.Context(), setID, onlyRemaining)
	if err != nil {
		writeError(w, err)
		return
	}
	message := "Successfully shuffled all tiles (boneyard + piles)."
	if onlyRemaining {
		message = "Successfully shuffled remaining boneyard tiles."
	}
	writeJSON(w, http.StatusOK, shuffleResponse{
		SetID:          setID,
		TilesRemaining: summary.TilesRemaining,
		Message:        message,
	})
}

func (h *handler) draw(w http.ResponseWriter, r *http.Request) {
	var req drawRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	setID := r.PathValue("set_id")
	drawn, summary, err := h.engine.Draw(r.Context(), setID, req.Count)
	if err != nil {
		writeError(w, err)
		return
	}
	log.Printf("tiles drawn set_id=%s count=%d remaining=%d", setID, len(drawn), summary.TilesRemaining)
	writeJSON(w, http.StatusOK, drawResponse{
		SetID:          setID,
		TilesDrawn:     drawn,
		TilesRemaining: summary.TilesRemaining,
	})
}

func (h *handler) createPile(w http.ResponseWriter, r *http.Request) {
	var req createPileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	setID := r.PathValue("set_id")
	if _, err := h.engine.CreatePile(r.Context(), setID, req.Name); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/api/set/"+setID+"/pile/"+req.Name)
	writeJSON(w, http.StatusCreated, createPileResponse{
		SetID:    setID,
		PileName: req.Name,
		Tiles:    []string{},
	})
}

func (h *handler) listPiles(w http.ResponseWriter, r *http.Request) {
	setID := r.PathValue("set_id")
	summary, err := h.engine.GetSetSummary(r.Context(), setID)
	if err != nil {
		writeError(w, err)
		return
	}
	piles := make([]pileSummary, 0, len(summary.Piles))
	for name, info := range summary.Piles {
		piles = append(piles, pileSummary{SetID: setID, PileName: name, TileCount: info.Count})
	}
	slices.SortFunc(piles, func(a, b pileSummary) int {
		return strings.Compare(a.PileName, b.PileName)
	})
	writeJSON(w, http.StatusOK, piles)
}

func (h *handler) getPile(w http.ResponseWriter, r *http.Request) {
	setID := r.PathValue("set_id")
	pileName := r.PathValue("pile_name")
	tiles, err := h.engine.ListPile(r.Context(), setID, pileName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pileListResponse{
		SetID:     setID,
		PileName:  pileName,
		PileTiles: tiles,
	})
}

func (h *handler) deletePile(w http.ResponseWriter, r *http.Request) {
	setID := r.PathValue("set_id")
	pileName := r.PathValue("pile_name")
	if _, err := h.engine.DeletePile(r.Context(), setID, pileName); err != nil {
		writeError(w, err)
		return
	}
	log.Printf("pile deleted set_id=%s pile=%s", setID, pileName)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) addToPile(w http.ResponseWriter, r *http.Request) {
	var req tileListRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	setID := r.PathValue("set_id")
	pileName := r.PathValue("pile_name")
	summary, err := h.engine.AddTilesToPile(r.Context(), setID, pileName, req.Tiles)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"set_id":          setID,
		"pile_name":       pileName,
		"pile_count":      summary.Piles[pileName].Count,
		"tiles_remaining": summary.TilesRemaining,
		"success":         true,
	})
}

func (h *handler) drawFromPile(w http.ResponseWriter, r *http.Request) {
	setID := r.PathValue("set_id")
	pileName := r.PathValue("pile_name")
	drawn, summary, err := h.engine.DrawFromPile(r.Context(), setID, pileName)
	if err != nil {
		writeError(w, err)
		return
	}
	log.Printf("pile draw set_id=%s pile=%s tile=%s", setID, pileName, drawn.ID)
	writeJSON(w, http.StatusOK, pileDrawResponse{
		SetID:              setID,
		PileName:           pileName,
		TileDrawn:          drawn,
		RemainingPileCount: summary.Piles[pileName].Count,
	})
}

func (h *handler) returnToBoneyard(w http.ResponseWriter, r *http.Request) {
	var req tileListRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	setID := r.PathValue("set_id")
	reshuffle := queryBool(r, "shuffle")
	summary, err := h.engine.ReturnToBoneyard(r.Context(), setID, req.Tiles, reshuffle)
	if err != nil {
		writeError(w, err)
		return
	}
	log.Printf("tiles returned set_id=%s count=%d remaining=%d", setID, len(req.Tiles), summary.TilesRemaining)
	writeJSON(w, http.StatusOK, returnResponse{
		SetID:          setID,
		TilesRemaining: summary.TilesRemaining,
	})
}

// tileImage redirects to the static asset for a tile face.
func (h *handler) tileImage(w http.ResponseWriter, r *http.Request) {
	tile, err := domino.ParseTile(r.PathValue("tile_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	target := h.resolver.FrontURL(tile)
	if queryBool(r, "back") {
		target = h.resolver.BackURL()
	}
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

// tileCatalog lists every tile of a set type with its image references.
func (h *handler) tileCatalog(w http.ResponseWriter, r *http.Request) {
	setType := domino.SetType(r.URL.Query().Get("type"))
	if setType == "" {
		setType = domino.SetTypeDoubleSix
	}
	tiles, err := domino.Population(setType)
	if err != nil {
		writeError(w, err)
		return
	}
	catalog := make([]tileCatalogEntry, len(tiles))
	for i, tile := range tiles {
		catalog[i] = tileCatalogEntry{
			ID:            tile.ID(),
			FrontImageURL: h.resolver.APIFrontURL(tile),
			BackImageURL:  h.resolver.APIBackURL(tile),
		}
	}
	writeJSON(w, http.StatusOK, catalog)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorEnvelope{
			Error: "invalid request body: " + err.Error(),
			Code:  string(domino.CodeUnknown),
		})
		return false
	}
	return true
}

func queryBool(r *http.Request, name string) bool {
	value := strings.ToLower(strings.TrimSpace(r.URL.Query().Get(name)))
	return value == "true" || value == "1"
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorEnvelope{
		Error: err.Error(),
		Code:  string(codeFor(err)),
	})
}

func codeFor(err error) domino.Code {
	switch {
	case errors.Is(err, storage.ErrUnavailable):
		return domino.CodeStoreUnavailable
	case errors.Is(err, storage.ErrDuplicateID):
		return domino.CodeDuplicateID
	default:
		return domino.CodeOf(err)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domino.ErrSetNotFound),
		errors.Is(err, domino.ErrPileNotFound),
		errors.Is(err, domino.ErrTileNotFound):
		return http.StatusNotFound
	case errors.Is(err, domino.ErrDuplicatePileName):
		return http.StatusConflict
	case errors.Is(err, domino.ErrInvalidSetType),
		errors.Is(err, domino.ErrInvalidMultiplicity),
		errors.Is(err, domino.ErrInvalidCount),
		errors.Is(err, domino.ErrInvalidTileFormat),
		errors.Is(err, domino.ErrInvalidPileName),
		errors.Is(err, domino.ErrInsufficientTiles),
		errors.Is(err, domino.ErrEmptyPile):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// corsMiddleware applies the configured origin allow-list. A "*" entry
// allows every origin.
func corsMiddleware(next http.Handler, origins []string) http.Handler {
	if len(origins) == 0 {
		return next
	}
	allowAll := slices.Contains(origins, "*")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case origin == "":
		case allowAll:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case slices.Contains(origins, origin):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
