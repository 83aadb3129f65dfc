package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"gitee.com/czyczk/attested-reveal/internal/appinit"
	"gitee.com/czyczk/attested-reveal/internal/background"
	"gitee.com/czyczk/attested-reveal/internal/blockchain"
	"gitee.com/czyczk/attested-reveal/internal/blockchain/eventmgr"
	"gitee.com/czyczk/attested-reveal/internal/service"
	"gitee.com/czyczk/attested-reveal/pkg/models/confidential"
	"gitee.com/czyczk/attested-reveal/pkg/models/handle"
	"gitee.com/czyczk/attested-reveal/pkg/sm2keyutils"
)

func main() {
	var configPath string

	confFlag := func(defaultValue string) *cli.StringFlag {
		return &cli.StringFlag{
			Name:        "conf",
			Aliases:     []string{"c"},
			Value:       defaultValue,
			EnvVars:     []string{"AR_CONF"},
			Destination: &configPath,
		}
	}

	app := &cli.App{
		Name:  "attested-reveal",
		Usage: "Reveal encrypted handles through an attested confidential network",
		Commands: []*cli.Command{
			{
				Name:    "devnet",
				Aliases: []string{"d"},
				Usage:   "Start a development confidential network",
				Flags:   []cli.Flag{confFlag("devnet.yaml")},
				Action:  getDevnetFunc(&configPath),
			},
			{
				Name:    "encrypt",
				Aliases: []string{"e"},
				Usage:   "Encrypt a value on the network and optionally store the handle in a ledger slot",
				Flags: []cli.Flag{
					confFlag("client.yaml"),
					&cli.Uint64Flag{Name: "value", Aliases: []string{"v"}, Required: true},
					&cli.StringFlag{Name: "owner", Usage: "owner address (defaults to the address of the configured owner key)"},
					&cli.StringFlag{Name: "scope", Value: "default"},
					&cli.StringFlag{Name: "slot", Usage: "ledger slot to store the handle in"},
				},
				Action: getEncryptFunc(&configPath),
			},
			{
				Name:    "grant",
				Aliases: []string{"g"},
				Usage:   "Grant an address the right to decrypt a handle",
				Flags: []cli.Flag{
					confFlag("client.yaml"),
					&cli.StringFlag{Name: "handle", Required: true},
					&cli.StringFlag{Name: "grantee", Required: true},
					&cli.DurationFlag{Name: "wait", Usage: "wait up to this long for the grant to be committed (Fabric ledger only)"},
				},
				Action: getGrantFunc(&configPath),
			},
			{
				Name:    "reveal",
				Aliases: []string{"r"},
				Usage:   "Reveal handles (or the handles stored in ledger slots) as the configured owner",
				Flags: []cli.Flag{
					confFlag("client.yaml"),
					&cli.StringFlag{Name: "object", Value: "cli", Usage: "business object ID the handles belong to"},
					&cli.StringSliceFlag{Name: "handle"},
					&cli.StringSliceFlag{Name: "slot"},
					&cli.BoolFlag{Name: "session", Usage: "create a session credential before revealing"},
				},
				Action: getRevealFunc(&configPath),
			},
		},
	}

	// Run the cli helper
	if err := app.Run(os.Args); err != nil {
		log.Fatalln(err)
	}
}

func loadClientInfo(configPath string) (*appinit.ClientInfo, error) {
	info, err := appinit.LoadClientInfo(configPath)
	if err != nil {
		return nil, err
	}

	if err = appinit.SetupLogger(info.Log); err != nil {
		return nil, err
	}

	return &info, nil
}

func getDevnetFunc(configPath *string) func(c *cli.Context) error {
	return func(c *cli.Context) error {
		devnetInfo, err := appinit.LoadDevnetInfo(*configPath)
		if err != nil {
			return err
		}

		if err = appinit.SetupLogger(devnetInfo.Log); err != nil {
			return err
		}

		network, closeStore, err := appinit.SetupDevnet(&devnetInfo)
		if err != nil {
			return err
		}
		defer closeStore()

		server := background.NewDevnetServer(network, fmt.Sprintf(":%v", devnetInfo.Port))
		if err = server.Start(); err != nil {
			return err
		}

		// Listen Ctrl+C signals. On receiving a signal stops the app elegantly
		chanQuit := make(chan os.Signal, 1)
		signal.Notify(chanQuit, os.Interrupt)
		select {
		case err := <-server.Errors():
			return err
		case <-chanQuit:
			log.Infoln("收到 Ctrl+C 信号，正在退出程序...")

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Stop(ctx)
		}
	}
}

func getEncryptFunc(configPath *string) func(c *cli.Context) error {
	return func(c *cli.Context) error {
		info, err := loadClientInfo(*configPath)
		if err != nil {
			return err
		}

		owner := c.String("owner")
		if owner == "" {
			if info.Owner.PrivateKey == "" {
				return fmt.Errorf("未指定所有者地址，且配置中没有所有者私钥")
			}

			ownerKey, err := appinit.LoadSM2PrivateKey(info.Owner.PrivateKey)
			if err != nil {
				return err
			}
			owner = sm2keyutils.AddressOf(&ownerKey.PublicKey)
		}

		confidentialBCAO, gatewayLedger, err := appinit.GatewayBCAOs(info, owner)
		if err != nil {
			return err
		}

		h, err := confidentialBCAO.Encrypt(c.Context, &confidential.EncryptRequest{
			Value: c.Uint64("value"),
			Owner: owner,
			Scope: c.String("scope"),
		})
		if err != nil {
			return err
		}
		fmt.Printf("Handle: %v\n", h)

		slot := c.String("slot")
		if slot == "" {
			return nil
		}

		ledger, closeLedger, err := appinit.SetupLedger(info, gatewayLedger)
		if err != nil {
			return err
		}
		defer closeLedger()

		txInfo, err := ledger.PutHandle(c.Context, slot, h)
		if err != nil {
			return errors.Wrapf(err, "无法将句柄写入槽位 '%v'", slot)
		}
		fmt.Printf("Transaction ID: %v\n", txInfo.TransactionID)

		return nil
	}
}

func getGrantFunc(configPath *string) func(c *cli.Context) error {
	return func(c *cli.Context) error {
		info, err := loadClientInfo(*configPath)
		if err != nil {
			return err
		}

		h, err := handle.Parse(c.String("handle"))
		if err != nil {
			return err
		}

		_, gatewayLedger, err := appinit.GatewayBCAOs(info, "")
		if err != nil {
			return err
		}

		ledger, closeLedger, err := appinit.SetupLedger(info, gatewayLedger)
		if err != nil {
			return err
		}
		defer closeLedger()

		var watch *eventmgr.GrantWatch
		wait := c.Duration("wait")
		if wait > 0 {
			if blockchain.ParseBCType(info.Ledger.Type) != blockchain.Fabric {
				return fmt.Errorf("--wait 仅适用于 Fabric 账本")
			}

			watch, err = appinit.WatchFabricGrants(info.Ledger.Fabric)
			if err != nil {
				return err
			}
			defer watch.Close()
		}

		grantee := c.String("grantee")
		txInfo, err := ledger.GrantAccess(c.Context, h, grantee)
		if err != nil {
			return err
		}
		fmt.Printf("Transaction ID: %v\n", txInfo.TransactionID)

		if watch == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(c.Context, wait)
		defer cancel()
		event, err := watch.Wait(ctx, h, grantee)
		if err != nil {
			return errors.Wrap(err, "等待授权提交失败")
		}
		fmt.Printf("Committed in block %v\n", event.GetBlockNumber())

		return nil
	}
}

func getRevealFunc(configPath *string) func(c *cli.Context) error {
	return func(c *cli.Context) error {
		info, err := loadClientInfo(*configPath)
		if err != nil {
			return err
		}

		handles, slots := c.StringSlice("handle"), c.StringSlice("slot")
		if len(handles) == 0 && len(slots) == 0 {
			return fmt.Errorf("需要至少一个 --handle 或 --slot")
		} else if len(handles) > 0 && len(slots) > 0 {
			return fmt.Errorf("--handle 与 --slot 不能同时使用")
		}

		rc, err := appinit.NewRevealContext(info, os.Stdin, os.Stderr)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), info.Session.RevokeTimeout)
			defer cancel()
			if err := rc.Close(ctx); err != nil {
				log.Errorln(err)
			}
		}()

		if c.Bool("session") {
			if err := rc.CreateSession(c.Context); err != nil {
				log.Warnf("无法创建会话，将使用所有者签名解密: %v", err)
			}
		}

		var result *service.RevealResult
		if len(slots) > 0 {
			result, err = rc.RevealSlots(c.Context, c.String("object"), slots)
		} else {
			hs, parseErr := handle.ParseAll(handles)
			if parseErr != nil {
				return parseErr
			}
			result, err = rc.Reveal(c.Context, c.String("object"), hs)
		}
		if result != nil {
			printRevealResult(result)
		}

		return err
	}
}

func printRevealResult(result *service.RevealResult) {
	fmt.Printf("Object %v (path: %v)\n", result.DomainObjectID, result.Path)
	for i, item := range result.Items {
		if item.Err != nil {
			fmt.Printf("  [%v] %v: error %v (recovery: %v)\n", i, item.Handle.Short(), item.Err.Message, item.Err.Recovery)
			continue
		}
		fmt.Printf("  [%v] %v: %v\n", i, item.Handle.Short(), item.Value)
	}
}
