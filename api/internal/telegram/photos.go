package telegram

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"log"
	"math"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	xdraw "golang.org/x/image/draw"

	"latexsnap/api/internal/recognize"
	"latexsnap/api/internal/store"
	"latexsnap/api/internal/util"
)

func isImageDocument(d *tgbotapi.Document) bool {
	return d != nil && strings.HasPrefix(strings.ToLower(d.MimeType), "image/")
}

func (r *Router) acceptPhoto(msg tgbotapi.Message) {
	cid := msg.Chat.ID

	var fileID, name, mime string
	var size int
	if len(msg.Photo) > 0 {
		ph := msg.Photo[len(msg.Photo)-1]
		fileID, name, mime, size = ph.FileID, "photo.jpg", "image/jpeg", ph.FileSize
	} else {
		d := msg.Document
		fileID, name, mime, size = d.FileID, d.FileName, d.MimeType, d.FileSize
	}
	if size > recognize.MaxFileSize {
		r.send(cid, "Image size must be less than 10MB.")
		return
	}

	url, err := r.Bot.GetFileDirectURL(fileID)
	if err != nil {
		r.SendError(cid, err)
		return
	}
	data, err := download(url)
	if err != nil {
		r.SendError(cid, err)
		return
	}
	img, err := recognize.CaptureFile(name, mime, data)
	if err != nil {
		r.SendError(cid, err)
		return
	}

	key := "chat:" + fmt.Sprint(cid)
	if msg.MediaGroupID != "" {
		key = "grp:" + msg.MediaGroupID
	}
	bi, _ := batches.LoadOrStore(key, &photoBatch{ChatID: cid, Key: key})
	b := bi.(*photoBatch)

	b.mu.Lock()
	b.images = append(b.images, img)
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(debounce, func() { r.processBatch(key) })
	b.mu.Unlock()
}

func (r *Router) processBatch(key string) {
	bi, ok := batches.LoadAndDelete(key)
	if !ok {
		return
	}
	b := bi.(*photoBatch)

	b.mu.Lock()
	images := append([]recognize.Image(nil), b.images...)
	chatID := b.ChatID
	b.mu.Unlock()

	if len(images) == 0 {
		return
	}
	img := images[0]
	if len(images) > 1 {
		merged, err := combineAsOne(images)
		if err != nil {
			r.SendError(chatID, fmt.Errorf("stacking photos: %w", err))
			return
		}
		img = recognize.Image{Data: merged, MIME: "image/jpeg", Name: "album.jpg"}
	}
	r.recognize(context.Background(), chatID, img)
}

// recognize runs one submission for the chat and replies with the result.
func (r *Router) recognize(ctx context.Context, chatID int64, img recognize.Image) {
	_, _ = r.Bot.Send(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))

	st, err := r.Settings.Load(ctx)
	if err != nil {
		r.SendError(chatID, err)
		return
	}
	p := getPrefs(chatID)
	prompt := st.Prompt
	if p.Prompt != "" {
		prompt = p.Prompt
	}

	pl := &recognize.Pipeline{Client: recognize.New(st.EndpointURL, r.HTTP)}
	res, err := pl.Run(ctx, recognize.FileSource{Image: &img}, recognize.Options{
		Prompt: prompt,
		Mode:   r.modeFor(chatID),
	})
	r.record(ctx, recognize.PromptOrDefault(prompt), res, err)
	if err != nil {
		r.SendError(chatID, err)
		return
	}
	if res.Markup == "" {
		r.send(chatID, "The endpoint returned no LaTeX for this image.")
		return
	}
	r.SendResult(chatID, res.Markup)
}

func (r *Router) record(ctx context.Context, prompt string, res recognize.Result, err error) {
	if r.Recorder == nil || res.ImageHash == "" {
		return
	}
	rec := store.Recognition{
		ImageHash: res.ImageHash,
		Source:    "telegram",
		Prompt:    prompt,
		Markup:    res.Markup,
	}
	if err != nil {
		rec.ErrorKind = string(recognize.KindOf(err))
		rec.Error = util.Truncate(err.Error(), 1000)
	}
	if _, err := r.Recorder.Add(ctx, rec); err != nil {
		log.Printf("telegram: record history: %v", err)
	}
}

// combineAsOne stacks images vertically, centered on a white page, and
// scales the result down past maxPixels.
func combineAsOne(images []recognize.Image) ([]byte, error) {
	decoded := make([]image.Image, 0, len(images))
	maxW, sumH := 0, 0

	for _, in := range images {
		img, err := decodeStrict(in.Data)
		if err != nil {
			return nil, err
		}
		decoded = append(decoded, img)
		b := img.Bounds()
		if b.Dx() > maxW {
			maxW = b.Dx()
		}
		sumH += b.Dy()
	}
	if maxW == 0 || sumH == 0 {
		return nil, fmt.Errorf("empty images")
	}

	dst := image.NewRGBA(image.Rect(0, 0, maxW, sumH))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	y := 0
	for _, img := range decoded {
		w, h := img.Bounds().Dx(), img.Bounds().Dy()
		x := (maxW - w) / 2
		draw.Draw(dst, image.Rect(x, y, x+w, y+h), img, img.Bounds().Min, draw.Over)
		y += h
	}

	final := image.Image(dst)
	if totalPx := maxW * sumH; totalPx > maxPixels {
		scale := math.Sqrt(float64(maxPixels) / float64(totalPx))
		newW := max(int(float64(maxW)*scale+0.5), 1)
		newH := max(int(float64(sumH)*scale+0.5), 1)
		final = scaleDown(dst, newW, newH)
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, final, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func decodeStrict(b []byte) (image.Image, error) {
	switch util.SniffMimeHTTP(b) {
	case "image/jpeg":
		return jpeg.Decode(bytes.NewReader(b))
	case "image/png":
		return png.Decode(bytes.NewReader(b))
	}
	img, _, err := image.Decode(bytes.NewReader(b))
	return img, err
}

func scaleDown(src image.Image, newW, newH int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

func download(url string) ([]byte, error) {
	resp, err := httpClient().Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("download: status %d: %s", resp.StatusCode, string(b))
	}
	return io.ReadAll(io.LimitReader(resp.Body, recognize.MaxFileSize+1))
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}
