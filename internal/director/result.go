// Package director holds the scene scripts. Result shows how a query result
// streams from the server through the driver buffer into the application.
package director

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/ivlev/resultflow/internal/config"
	"github.com/ivlev/resultflow/internal/effects"
	"github.com/ivlev/resultflow/internal/engine"
	"github.com/ivlev/resultflow/internal/scene"
	"github.com/ivlev/resultflow/internal/sequencer"
	"github.com/ivlev/resultflow/internal/source"
)

// ContentY is the height of the row records travel along.
const ContentY = 0.5

var headerTop = scene.Up.Mul(3.2)

type record struct {
	server, driver, app *scene.Group
}

// Result is the record streaming scene.
type Result struct {
	cfg   *config.Config
	icons source.IconSource
	log   *slog.Logger
	rnd   *rand.Rand

	eng *engine.Engine
	seq *sequencer.Sequencer

	db, gear *scene.Node
	app      *scene.Node
	driver   *scene.Node
	query    *scene.Node
	queryBox *scene.Node
	call     *scene.Node

	serverBuf, cursor, driverBuf *scene.Node
	records                      []record
}

var _ engine.Script = (*Result)(nil)

// NewResult prepares the scene. Seed 0 picks a time based seed for the
// scatter of records inside the application.
func NewResult(cfg *config.Config, icons source.IconSource, log *slog.Logger) *Result {
	if log == nil {
		log = slog.Default()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Result{cfg: cfg, icons: icons, log: log, rnd: rand.New(rand.NewSource(seed))}
}

func (r *Result) Name() string { return "Result" }

func (r *Result) Run(ctx context.Context, eng *engine.Engine) error {
	r.eng = eng
	r.seq = sequencer.New(eng)

	sections := []struct {
		name string
		run  func(context.Context) error
	}{
		{"headings", r.headings},
		{"query", r.sendQuery},
		{"loading", r.load},
		{"records", r.createRecords},
		{"first batch", r.firstBatch},
		{"pull", r.pull},
		{"second batch", r.secondBatch},
		{"consume", r.consume},
		{"summary", r.summary},
		{"final", r.final},
		{"end card", r.endCard},
	}
	for _, s := range sections {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.log.Debug("section", "name", s.name, "t", eng.Clock())
		if err := s.run(ctx); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

// describe captions the frame and records the subtitle text.
func (r *Result) describe(ctx context.Context, text scene.Mobject, plain string, enqueue bool) error {
	r.eng.Caption(plain)
	return r.seq.Describe(ctx, text, enqueue)
}

func (r *Result) play(ctx context.Context, effs ...effects.Effect) error {
	return r.seq.Flush(ctx, effs...)
}

func (r *Result) playFor(ctx context.Context, seconds float64, effs ...effects.Effect) error {
	return r.seq.Play(ctx, sequencer.PlayOptions{RunTime: seconds}, effs...)
}

func (r *Result) wait(ctx context.Context, seconds float64) error {
	return r.eng.Wait(ctx, seconds)
}

func (r *Result) pause(ctx context.Context) error {
	return r.eng.Wait(ctx, r.cfg.WaitDuration)
}

func (r *Result) icon(name string, height float64) (*scene.Node, error) {
	px := int(math.Ceil(height * float64(r.cfg.Height) / scene.FrameHeight))
	mask, err := r.icons.Icon(name, px)
	if err != nil {
		return nil, err
	}
	return scene.NewRaster(name, mask, height, true), nil
}

// twoLines stacks two caption lines.
func twoLines(first, second *scene.Node) *scene.Group {
	second.NextTo(first, scene.Down, 0.3)
	return scene.NewGroup(first, second)
}

func (r *Result) headings(context.Context) error {
	db, err := r.icon(source.Database, 1)
	if err != nil {
		return err
	}
	db.MoveTo(headerTop.Add(scene.Right.Mul(4)))

	gear, err := r.icon(source.Gear, 0.7)
	if err != nil {
		return err
	}
	gear.SetColor(scene.BlueC)

	app := scene.NewText("App")
	app.MoveTo(headerTop.Add(scene.Left.Mul(4)))
	gear.MoveTo(app.Center().Add(scene.Down.Mul(4.5)))

	driver := scene.NewText("Driver")
	driver.MoveTo(headerTop.Add(scene.Left.Mul(0.5)))

	divider := scene.NewDashedLine(scene.V(2, db.Center().Y), scene.V(2, -2), scene.White)
	divider.SetOpacity(0.5)

	client := scene.NewText("CLIENT")
	client.Scale(0.5)
	client.Shift(scene.V(-scene.FrameWidth/2-client.Bounds().Min.X, 0))
	client.Rotate(math.Pi / 2)
	client.Shift(scene.Up.Mul(0.5))

	server := scene.NewText("SERVER")
	server.Scale(0.5)
	server.Shift(scene.V(scene.FrameWidth/2-server.Bounds().Max.X, 0))
	server.Rotate(-math.Pi / 2)
	server.Shift(scene.Up.Mul(0.5))

	r.db, r.gear, r.app, r.driver = db, gear, app, driver
	r.eng.Add(db, app, driver, divider, client, server)
	return nil
}

func (r *Result) sendQuery(ctx context.Context) error {
	if err := r.describe(ctx, scene.NewText("Your application crafts a Cypher query."),
		"Your application crafts a Cypher query.", true); err != nil {
		return err
	}
	query := scene.NewText("Query")
	query.MoveTo(scene.V(r.app.Center().X, ContentY))
	r.query = query

	if err := r.play(ctx, effects.FadeIn(query)); err != nil {
		return err
	}
	if err := r.pause(ctx); err != nil {
		return err
	}
	driverX := r.driver.Center().X
	if err := r.play(ctx, effects.Transform(query, func(m scene.Mobject) {
		m.MoveTo(scene.V(driverX, m.Center().Y))
	})); err != nil {
		return err
	}

	const bolt = "The driver sends it to the Neo4j server through the Bolt protocol."
	if err := r.describe(ctx, scene.NewText(bolt), bolt, true); err != nil {
		return err
	}
	box := scene.NewSurroundingRectangle(query, scene.SmallBuff, scene.Yellow)
	if err := r.playFor(ctx, 0.8, effects.Create(box)); err != nil {
		return err
	}

	dbX := r.db.Center().X
	if err := r.playFor(ctx, 0.8, effects.Transform(scene.NewGroup(query, box), func(m scene.Mobject) {
		m.MoveTo(scene.V(dbX, m.Center().Y))
	})); err != nil {
		return err
	}
	r.queryBox = box
	return r.wait(ctx, 2)
}

func (r *Result) load(ctx context.Context) error {
	const text = "The database fetches the result."
	if err := r.describe(ctx, scene.NewText(text), text, false); err != nil {
		return err
	}
	loader := scene.NewDot(0.05, scene.White)
	loader.NextTo(r.db, scene.Right, scene.MedSmallBuff)
	path := scene.NewCircle(0.25, scene.White).Flip()
	path.NextTo(r.db, scene.Right, scene.MedSmallBuff)

	if err := r.play(ctx, effects.FadeOut(r.queryBox)); err != nil {
		return err
	}
	if err := r.playFor(ctx, 0.5, effects.FadeOut(r.query, effects.TargetPosition(r.db.Edge(scene.Down)))); err != nil {
		return err
	}
	for range 2 {
		if err := r.playFor(ctx, 0.8, effects.MoveAlongPath(loader, path, effects.WithRate(effects.Smooth))); err != nil {
			return err
		}
	}
	return r.playFor(ctx, 0.5, effects.FadeOut(loader))
}

// newRecord builds the box and label of record i. A negative opacity fades
// records by their distance from the head of the server buffer.
func (r *Result) newRecord(i int, opacity float64) *scene.Group {
	s := r.cfg.Scene
	box := scene.NewRectangle(s.RecordWidth, s.RecordHeight, scene.White).SetFill(scene.Black, 0.8)
	box.SetZ(i)
	label := scene.NewText(fmt.Sprintf("#%d", i))
	label.SetZ(i + 1)
	label.ScaleToFitWidth(box.Width() - 0.1)
	if i < 10 {
		label.Scale(0.7)
	}

	g := scene.NewGroup(label, box)
	switch {
	case opacity >= 0:
		g.SetOpacity(opacity)
	case i < s.ServerBufferSize:
		g.SetOpacity(1 / float64(i+1))
	default:
		g.SetOpacity(0)
	}
	return g
}

// scatter returns a random offset of up to one unit on each axis, biased
// towards the lower left.
func (r *Result) scatter(bias float64) scene.Vec {
	sx := sign(r.rnd.Float64() - bias)
	dx := r.rnd.Float64()
	sy := sign(r.rnd.Float64() - bias)
	dy := r.rnd.Float64()
	return scene.Left.Mul(sx * dx).Add(scene.Up.Mul(sy * dy))
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func (r *Result) createRecords(ctx context.Context) error {
	s := r.cfg.Scene
	rows := s.DriverBufferSize / s.Columns
	dbCenter := r.db.Center()

	r.serverBuf = scene.NewRectangle(s.RecordWidth*float64(s.ServerBufferSize), s.RecordHeight, scene.White).
		SetEdgeColors(scene.Black, scene.White, scene.White, scene.Black)
	r.serverBuf.MoveTo(scene.V(dbCenter.X, ContentY))

	r.cursor = scene.NewTriangle(scene.BlueC)
	r.cursor.Rotate(math.Pi)
	r.cursor.Scale(0.1)
	r.cursor.AlignTo(r.serverBuf, scene.Left.Add(scene.Up))
	r.cursor.Shift(scene.Up.Mul(r.cursor.Height() + 0.1))
	r.cursor.Shift(scene.Right.Mul(r.serverBuf.Width() / 4))

	if err := r.seq.Play(ctx, sequencer.PlayOptions{Enqueue: true},
		effects.GrowFromPoint(r.serverBuf, dbCenter),
		effects.GrowFromPoint(r.cursor, dbCenter)); err != nil {
		return err
	}

	r.driverBuf = scene.NewRectangle(s.RecordWidth*float64(s.Columns), s.RecordHeight*float64(rows), scene.White)
	r.driverBuf.MoveTo(scene.V(r.driver.Center().X, ContentY))

	prev := r.newRecord(0, -1)
	prev.AlignTo(r.serverBuf, scene.Up)
	prev.AlignTo(r.cursor, scene.Left)
	prev.Shift(scene.Left.Mul(prev.Get(1).Width()/2 - r.cursor.Width()/2))
	prev.Shift(scene.Left.Mul(s.RecordWidth))

	appX := r.app.Center().X
	grows := make([]effects.Effect, 0, s.TotalRecords)
	r.records = make([]record, 0, s.TotalRecords)
	for i := range s.TotalRecords {
		srv := r.newRecord(i, -1)
		srv.AlignTo(prev, scene.Up.Add(scene.Right))
		srv.Shift(scene.Right.Mul(s.RecordWidth))
		prev = srv

		slot := i % s.DriverBufferSize
		drv := r.newRecord(i, 1)
		drv.AlignTo(r.driverBuf, scene.Up.Add(scene.Left))
		drv.Shift(scene.Right.Mul(float64(slot%s.Columns) * s.RecordWidth))
		drv.Shift(scene.Down.Mul(float64(slot/s.Columns) * s.RecordHeight))

		app := r.newRecord(i, 1)
		app.MoveTo(scene.V(appX, ContentY).Add(r.scatter(0.3)))

		r.records = append(r.records, record{server: srv, driver: drv, app: app})
		grows = append(grows, effects.GrowFromPoint(srv, dbCenter))
	}

	if err := r.play(ctx, effects.Group(grows)); err != nil {
		return err
	}
	return r.pause(ctx)
}

// moveRecords moves records [from, to) into the driver buffer one at a time.
// Every step also pulls the records behind it one slot closer and brightens
// those now in the server buffer.
func (r *Result) moveRecords(from, to int) []effects.Effect {
	s := r.cfg.Scene
	steps := make([]effects.Effect, 0, to-from)
	for i := from; i < to; i++ {
		dst := r.records[i].driver.Center()
		batch := []effects.Effect{effects.Transform(r.records[i].server, func(m scene.Mobject) {
			m.MoveTo(dst)
			m.SetOpacity(1)
		})}
		shift := scene.Left.Mul(s.RecordWidth * float64(i%s.DriverBufferSize+1))
		for j := i + 1; j < s.TotalRecords; j++ {
			behind := j - i
			batch = append(batch, effects.Transform(r.records[j].server, func(m scene.Mobject) {
				m.Shift(shift)
				if behind <= s.ServerBufferSize {
					m.SetOpacity(1 / float64(behind))
				}
			}))
		}
		steps = append(steps, effects.Group(batch, effects.WithRunTime(0.3)))
	}
	return steps
}

// process spins the gear while the record is consumed into it.
func (r *Result) process(i int) effects.Effect {
	return effects.Group([]effects.Effect{
		effects.Rotate(r.gear, math.Pi/4),
		effects.FadeOut(r.records[i].server, effects.TargetPosition(r.gear.Center())),
	})
}

func (r *Result) processRange(from, to int, lag float64) effects.Effect {
	effs := make([]effects.Effect, 0, to-from)
	for i := from; i < to; i++ {
		effs = append(effs, r.process(i))
	}
	return effects.Succession(effs, effects.LagRatio(lag))
}

func (r *Result) toApp(i int) effects.Effect {
	dst := r.records[i].app.Center()
	return effects.Transform(r.records[i].server, func(m scene.Mobject) { m.MoveTo(dst) })
}

func (r *Result) firstBatch(ctx context.Context) error {
	first := fmt.Sprintf("The server sends the first batch of results (default batch size is %d).", r.cfg.Scene.FetchSize)
	const second = "The driver stores results in a buffer until your application asks for them."
	caption := twoLines(scene.NewText(first), scene.NewText(second, scene.Bold("buffer")))
	if err := r.describe(ctx, caption, first+"\n"+second, false); err != nil {
		return err
	}
	if err := r.play(ctx, effects.FadeIn(r.driverBuf)); err != nil {
		return err
	}
	if err := r.play(ctx, effects.Succession(r.moveRecords(0, r.cfg.Scene.DriverBufferSize))); err != nil {
		return err
	}
	return r.wait(ctx, 3)
}

func (r *Result) pull(ctx context.Context) error {
	const first = "Your application fetches records from the driver buffer."
	const second = "It can process records while other records are still flowing."
	caption := twoLines(scene.NewText(first), scene.NewText(second, scene.Bold("process records")))
	if err := r.describe(ctx, caption, first+"\n"+second, false); err != nil {
		return err
	}
	if err := r.play(ctx, effects.FadeIn(r.gear)); err != nil {
		return err
	}

	next := scene.NewText("next")
	next.Scale(0.8)
	next.NextTo(r.app, scene.Down, 0.5)
	for i := range 2 {
		if err := r.play(ctx, effects.Group([]effects.Effect{effects.Indicate(next), r.toApp(i)})); err != nil {
			return err
		}
		if i == 0 {
			if err := r.pause(ctx); err != nil {
				return err
			}
		} else if err := r.play(ctx, effects.FadeOut(next)); err != nil {
			return err
		}
		if err := r.play(ctx, r.process(i)); err != nil {
			return err
		}
		if err := r.pause(ctx); err != nil {
			return err
		}
	}

	fetch := scene.NewText("fetch")
	fetch.Scale(0.8)
	fetch.NextTo(r.app, scene.Down, 0.5)
	pulls := make([]effects.Effect, 0, r.cfg.Scene.DriverBufferSize-2)
	for i := 2; i < r.cfg.Scene.DriverBufferSize; i++ {
		pulls = append(pulls, r.toApp(i))
	}
	if err := r.play(ctx, effects.Indicate(fetch), effects.LaggedStart(pulls, effects.LagRatio(0.25))); err != nil {
		return err
	}
	if err := r.play(ctx, effects.LaggedStart([]effects.Effect{r.process(2), effects.FadeOut(fetch)}, effects.LagRatio(0.25))); err != nil {
		return err
	}
	return r.wait(ctx, 3)
}

func (r *Result) secondBatch(ctx context.Context) error {
	const text = "When there are no more records in the driver buffer, the driver fetches more from the server."
	if err := r.describe(ctx, scene.NewText(text), text, true); err != nil {
		return err
	}
	s := r.cfg.Scene
	moves := r.moveRecords(s.DriverBufferSize, min(2*s.DriverBufferSize, s.TotalRecords))
	if err := r.play(ctx, effects.LaggedStart([]effects.Effect{
		effects.Succession(moves),
		r.processRange(3, 6, 2),
	})); err != nil {
		return err
	}
	return r.wait(ctx, 3)
}

func (r *Result) consume(ctx context.Context) error {
	if err := r.play(ctx, r.process(6)); err != nil {
		return err
	}
	const first = "If consume() is called at any point, all unconsumed results are discarded"
	const second = "and the driver receives the result summary."
	caption := twoLines(
		scene.NewText(first, scene.Colored("consume()", scene.Yellow), scene.Bold("discarded")),
		scene.NewText(second),
	)
	if err := r.describe(ctx, caption, first+"\n"+second, false); err != nil {
		return err
	}

	call := scene.NewText("consume()")
	call.Scale(0.8)
	call.NextTo(r.app, scene.Down, 0.5)
	if err := r.play(ctx, effects.Indicate(call)); err != nil {
		return err
	}

	var discarded []scene.Mobject
	for _, rec := range r.records[r.cfg.Scene.DriverBufferSize:] {
		discarded = append(discarded, rec.server)
	}
	if err := r.playFor(ctx, 1.5,
		effects.FadeOut(scene.NewGroup(discarded...)),
		effects.FadeOut(r.cursor),
		effects.FadeOut(r.serverBuf),
		effects.FadeOut(r.driverBuf)); err != nil {
		return err
	}
	r.call = call
	return nil
}

func (r *Result) summary(ctx context.Context) error {
	label := scene.NewText("Summary")
	label.Scale(0.5)
	label.MoveTo(scene.V(r.db.Center().X, ContentY))
	box := scene.NewSurroundingRectangle(label, scene.SmallBuff, scene.Yellow)

	if err := r.play(ctx, effects.GrowFromPoint(label, r.db.Center())); err != nil {
		return err
	}
	if err := r.play(ctx, effects.Create(box)); err != nil {
		return err
	}
	driverX := r.driver.Center().X
	if err := r.playFor(ctx, 0.8, effects.Transform(scene.NewGroup(label, box), func(m scene.Mobject) {
		m.MoveTo(scene.V(driverX, ContentY))
	})); err != nil {
		return err
	}
	if err := r.play(ctx, effects.FadeOut(box)); err != nil {
		return err
	}
	if err := r.play(ctx, effects.FadeOut(r.call)); err != nil {
		return err
	}
	return r.pause(ctx)
}

func (r *Result) final(ctx context.Context) error {
	const first = "Records fetched by the application are still available."
	const second = "Unconsumed records are no longer accessible."
	caption := twoLines(scene.NewText(first), scene.NewText(second))
	if err := r.describe(ctx, caption, first+"\n"+second, true); err != nil {
		return err
	}
	if err := r.play(ctx, r.processRange(7, r.cfg.Scene.DriverBufferSize, 1.5)); err != nil {
		return err
	}
	return r.wait(ctx, 5)
}

// endCard fades the diagram out and shows a QR code for the configured link.
func (r *Result) endCard(ctx context.Context) error {
	url := r.cfg.EndCardURL
	if url == "" {
		return nil
	}
	const size = 3.0
	mask, err := source.QRCode(url, int(math.Ceil(size*float64(r.cfg.Height)/scene.FrameHeight)))
	if err != nil {
		return err
	}
	qr := scene.NewRaster("qr", mask, size, true)
	qr.MoveTo(scene.Up.Mul(0.5))
	link := scene.NewText(url)
	link.Scale(0.5)
	link.NextTo(qr, scene.Down, scene.MedSmallBuff)

	var onScreen []scene.Mobject
	for _, n := range r.eng.Stage().Nodes() {
		onScreen = append(onScreen, n)
	}
	if len(onScreen) > 0 {
		if err := r.play(ctx, effects.FadeOut(scene.NewGroup(onScreen...))); err != nil {
			return err
		}
	}
	if err := r.play(ctx, effects.FadeIn(qr), effects.Write(link)); err != nil {
		return err
	}
	return r.wait(ctx, 3)
}
