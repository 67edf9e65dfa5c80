// Command simulate runs a headless auto-play session on template
// events only — no network, no database. Used for balance smoke tests.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/oiahoon/adventure-simulator/internal/character"
	"github.com/oiahoon/adventure-simulator/internal/engine"
	"github.com/oiahoon/adventure-simulator/internal/entropy"
)

func main() {
	var (
		name     = flag.String("name", "云逸", "character name")
		prof     = flag.String("profession", "warrior", "character profession")
		location = flag.String("location", "village", "starting location")
		ticks    = flag.Int("ticks", 500, "ticks to simulate")
		seed     = flag.Int64("seed", 42, "random seed")
		levelCap = flag.Int("cap", 0, "level cap (0 = uncapped)")
		verbose  = flag.Bool("v", false, "print every event")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	c := character.New(*name, character.Profession(*prof))
	state := engine.NewState(c, *location)

	opts := engine.DefaultOptions()
	opts.LevelCap = *levelCap
	opts.AutosaveEvery = 0

	rng := entropy.NewSource(*seed)
	session := engine.NewSession("simulate", state, opts, nil, nil, rng, *seed)

	fmt.Printf("%s（%s / %s）踏上旅途，起点：%s\n\n", c.Name, c.Profession, c.Storyline, *location)

	ctx := context.Background()
	for i := 0; i < *ticks; i++ {
		entry := session.Tick(ctx)
		if entry != nil && *verbose {
			fmt.Printf("[%d] %s (%s)\n", entry.GameTime, entry.Title, entry.Rarity)
			for _, line := range entry.Changes {
				fmt.Printf("      %s\n", line)
			}
		}
		if ended, reason := session.Ended(); ended {
			fmt.Printf("\n旅途终结：%s\n", reason)
			break
		}
	}

	st := session.State
	fmt.Printf("\n== %d tick 之后 ==\n", st.GameTime)
	fmt.Printf("等级 %d（%s），经验 %s\n", c.Level, c.Status.Cultivation, humanize.Comma(int64(c.Experience)))
	fmt.Printf("气血 %d/%d，真元 %d/%d，疲劳 %d\n", c.Status.HP, c.MaxHP(), c.Status.MP, c.MaxMP(), c.Status.Fatigue)
	fmt.Printf("财富 %s，声望 %d（%s）\n", humanize.Comma(int64(c.Status.Wealth)), c.Social.Reputation, c.Social.SocialStatus)
	fmt.Printf("事件 %d（模板 %d），成就 %d\n",
		st.Statistics.TotalEvents, st.Statistics.TemplateEvents, len(st.Achievements))
}
