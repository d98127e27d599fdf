// Package driftgrid renders an endless, slowly drifting wall of images for
// [Ebitengine].
//
// The plane is split into fixed-pitch cells. Only the cells under the
// viewport (plus a one-cell margin) exist at any time; as the camera moves,
// cells entering the window are created with an image picked from an
// [ImagePool] and cells leaving it are released. The same coordinate always
// shows the same image, and neighbouring cells avoid repeating an image
// that was shown recently.
//
// # Quick start
//
// The simplest way to get started is [Run], which creates a window and game
// loop for you:
//
//	cfg := driftgrid.DefaultConfig()
//	images := driftgrid.ResolveImages(ctx, cfg, driftgrid.SourceOptions{})
//	game, err := driftgrid.NewGame(cfg, images, driftgrid.GameOptions{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	driftgrid.Run(game, driftgrid.RunConfig{
//		Title: "driftgrid", Width: 1280, Height: 800, Resizable: true,
//	})
//
// # Motion
//
// The camera wanders on its own: a [MotionController] keeps a constant
// speed and perturbs its heading on a timer. Holding an arrow key (or
// WASD) switches to manual panning; a few seconds after the last key is
// released the random walk resumes.
//
// # Headless use
//
// [Engine] holds the whole model (grid, pool, motion, lightbox) without
// touching ebiten. Drive it with [Engine.Tick] and supply any
// [CellSurface] to observe cell creation and release.
//
// # Images
//
// [ResolveImages] reads a newline-separated list from a URL or file.
// Lines starting with "hf:" name a hosted dataset directory expanded by a
// [ListingClient]; lines starting with "dir:" name a local directory.
// Textures are fetched and scaled in the background by a [TextureCache].
//
// [Ebitengine]: https://ebitengine.org
package driftgrid
