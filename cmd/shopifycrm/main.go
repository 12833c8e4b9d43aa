package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyprian/shopifyCRM/internal/config"
	"github.com/hyprian/shopifyCRM/internal/model"
	"github.com/hyprian/shopifyCRM/internal/server"
	"github.com/hyprian/shopifyCRM/internal/service/runner"
	"github.com/hyprian/shopifyCRM/internal/store"
	"github.com/hyprian/shopifyCRM/internal/util"
)

func main() {
	root := &cobra.Command{
		Use:          "shopifycrm",
		Short:        "线索分发与对账工具",
		Long:         "把订单和弃购线索按每日上限轮流分给接线人，跟踪联系日期，并对账生成效能报告。",
		SilenceUsage: true,
	}

	root.AddCommand(newDistributeCmd())
	root.AddCommand(newReconcileCmd())
	root.AddCommand(newOrderStatusCmd())
	root.AddCommand(newServeCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupLogFile 把日志同时写到 stderr 和数据目录下的日志文件
// 打不开文件只降级为仅 stderr，不影响运行
func setupLogFile(dataDir string) {
	f, err := os.OpenFile(filepath.Join(dataDir, "shopifycrm.log"),
		os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("打开日志文件失败: %v", err)
		return
	}
	log.SetOutput(io.MultiWriter(os.Stderr, f))
}

// buildRunner CLI 子命令共用的装配：配置、业务配置、运行库
func buildRunner() (*runner.Runner, *store.Store, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("加载配置失败: %w", err)
	}

	settings, err := config.LoadSettings(config.SettingsPath(cfg))
	if err != nil {
		return nil, nil, err
	}

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("创建数据目录失败: %w", err)
	}
	setupLogFile(dataDir)

	st, err := store.New(filepath.Join(dataDir, "shopifycrm.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("初始化运行库失败: %w", err)
	}

	return runner.New(cfg, settings, st), st, nil
}

func printResult(result any) {
	b, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Printf("结果序列化失败: %v", err)
		return
	}
	fmt.Println(string(b))
}

func newDistributeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "distribute",
		Short: "执行一次线索分发",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, st, err := buildRunner()
			if err != nil {
				return err
			}
			defer st.Close()

			result, err := r.Distribute()
			if err != nil {
				return err
			}
			printResult(result)
			return nil
		},
	}
}

func newReconcileCmd() *cobra.Command {
	var dateStr string
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "对指定日期执行一次对账（缺省为今天）",
		RunE: func(cmd *cobra.Command, args []string) error {
			day := time.Now()
			if dateStr != "" {
				parsed, err := model.ParseSheetDate(dateStr)
				if err != nil {
					return err
				}
				day = parsed
			}

			r, st, err := buildRunner()
			if err != nil {
				return err
			}
			defer st.Close()

			result, err := r.Reconcile(day)
			if err != nil {
				return err
			}
			printResult(result)
			return nil
		},
	}
	cmd.Flags().StringVar(&dateStr, "date", "", "对账日期（格式 08-May-2025）")
	return cmd
}

func newOrderStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "order-status",
		Short: "用快递主表 CSV 回填订单物流状态",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, st, err := buildRunner()
			if err != nil {
				return err
			}
			defer st.Close()

			result, err := r.OrderStatus()
			if err != nil {
				return err
			}
			printResult(result)
			return nil
		},
	}
}

func newServeCmd() *cobra.Command {
	var (
		port    int
		devMode bool
		dataDir string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动本地看板",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("==========================================")
			fmt.Println("  shopifyCRM - 线索分发与对账看板")
			fmt.Println("==========================================")

			cfg, info, err := config.LoadConfigWithInfo()
			if err != nil {
				log.Printf("加载配置失败，使用默认配置: %v", err)
				cfg = config.DefaultConfig()
				info = config.LoadConfigInfo{}
			}

			// 命令行参数覆盖配置
			if port > 0 && !info.PortSpecified {
				cfg.Server.Port = port
			}
			if devMode {
				cfg.Server.DevMode = true
			}
			if dataDir != "" {
				cfg.Data.DataDir = dataDir
			}

			if dir, err := config.EnsureDataDir(cfg); err != nil {
				log.Printf("创建数据目录失败: %v", err)
			} else {
				fmt.Printf("数据目录: %s\n", dir)
				setupLogFile(dir)
			}

			srv := server.NewServer(cfg)

			addr := fmt.Sprintf(":%d", cfg.Server.Port)
			url := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)

			go func() {
				fmt.Printf("服务启动中，监听端口 %d ...\n", cfg.Server.Port)
				if err := srv.Run(addr); err != nil {
					log.Fatalf("服务启动失败: %v", err)
				}
			}()

			if !cfg.Server.DevMode {
				fmt.Printf("正在打开浏览器: %s\n", url)
				if err := util.OpenBrowserWithFallback(url); err != nil {
					fmt.Printf("无法自动打开浏览器，请手动访问: %s\n", url)
				}
			} else {
				fmt.Printf("开发模式: 请访问 %s\n", url)
			}

			fmt.Println("\n按 Ctrl+C 停止服务...")

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			fmt.Println("\n正在关闭服务...")
			return srv.Close()
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	cmd.Flags().BoolVar(&devMode, "dev", false, "开发模式")
	cmd.Flags().StringVar(&dataDir, "dataDir", "", "数据目录 (覆盖配置文件)")
	return cmd
}
